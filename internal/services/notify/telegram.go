package notify

import (
	"fmt"

	"github.com/botwerk/agency-backend/internal/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers user and admin notifications over Telegram. It is
// called only from the queue worker, after the originating ledger
// transaction has committed; a delivery failure is retried by the queue
// and never affects ledger state.
type Notifier struct {
	bot          *tgbotapi.BotAPI
	adminChatIDs []int64
	log          *zap.Logger
}

// NewNotifier creates a Telegram notifier. With an empty token it runs in
// log-only mode, which keeps local development working without a bot.
func NewNotifier(cfg config.TelegramConfig, log *zap.Logger) (*Notifier, error) {
	n := &Notifier{adminChatIDs: cfg.AdminChatIDs, log: log}

	if cfg.BotToken == "" {
		log.Warn("telegram bot token not set, notifications will only be logged")
		return n, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}
	n.bot = bot
	return n, nil
}

// SendToUser delivers a message to a single Telegram user
func (n *Notifier) SendToUser(chatID int64, text string) error {
	if n.bot == nil {
		n.log.Info("notification (dry run)", zap.Int64("chat_id", chatID), zap.String("text", text))
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending telegram message to %d: %w", chatID, err)
	}
	return nil
}

// NotifyAdmins delivers a message to every configured admin chat.
// Delivery is best-effort per chat; the first error is returned after
// all chats were attempted.
func (n *Notifier) NotifyAdmins(text string) error {
	var firstErr error
	for _, chatID := range n.adminChatIDs {
		if err := n.SendToUser(chatID, text); err != nil {
			n.log.Error("admin notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
