package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order types
const (
	OrderTypeBot     = "bot"
	OrderTypeMiniApp = "miniapp"
)

// Order statuses. The legal progression is
// new -> accepted -> paid (happy path), new -> rejected (terminal),
// accepted -> completed for orders closed without payment tracking.
const (
	OrderStatusNew       = "new"
	OrderStatusAccepted  = "accepted"
	OrderStatusRejected  = "rejected"
	OrderStatusCompleted = "completed"
	OrderStatusPaid      = "paid"
)

// ClientOrder represents a development request submitted by a client.
// FinalPrice is set by an admin when the order is accepted and is the
// base for referral commission once payment is confirmed.
type ClientOrder struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   int64     `gorm:"index:idx_client_orders_user_status;not null" json:"user_id"`
	Username string    `gorm:"type:varchar(100)" json:"username"`

	OrderType     string `gorm:"type:varchar(20);default:'bot';not null" json:"order_type"`
	ProjectName   string `gorm:"type:varchar(200);not null" json:"project_name"`
	Functionality string `gorm:"type:text;not null" json:"functionality"`
	Deadlines     string `gorm:"type:varchar(100);not null" json:"deadlines"`
	Budget        string `gorm:"type:varchar(100);not null" json:"budget"`

	Status     string   `gorm:"type:varchar(20);default:'new';index:idx_client_orders_user_status" json:"status"`
	FinalPrice *float64 `gorm:"type:decimal(20,2)" json:"final_price"`
	AdminNotes string   `gorm:"type:text" json:"admin_notes"`

	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID primary key
func (o *ClientOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
