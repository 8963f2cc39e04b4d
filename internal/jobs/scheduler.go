package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/services/session"
)

// sessions idle longer than this are purged
const staleSessionAge = 24 * time.Hour

// Scheduler runs recurring maintenance jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  *session.Service
	log       *zap.Logger
}

// NewScheduler creates the maintenance scheduler
func NewScheduler(sessions *session.Service, log *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		log:       log,
	}
}

// Start registers and launches all recurring jobs
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(30).Minutes().Do(s.cleanupStaleSessions); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("maintenance scheduler started")
	return nil
}

// Stop halts the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) cleanupStaleSessions() {
	count, err := s.sessions.DeleteStale(staleSessionAge)
	if err != nil {
		s.log.Error("failed to clean up stale sessions", zap.Error(err))
		return
	}
	if count > 0 {
		s.log.Info("stale sessions removed", zap.Int64("count", count))
	}
}
