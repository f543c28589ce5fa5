package model

import "time"

// MessageKind labels the lifecycle event a message was generated from.
type MessageKind string

const (
	MessageBidSubmitted     MessageKind = "bid_submitted"
	MessageBidAccepted      MessageKind = "bid_accepted"
	MessageBidRejected      MessageKind = "bid_rejected"
	MessagePaymentCompleted MessageKind = "payment_completed"
)

// Message is the durable notification record shown to a user on next login.
// Rows are append-only; only the Read flag is ever updated.
type Message struct {
	ID         uint `gorm:"primaryKey"`
	SenderID   uint `gorm:"index"`
	ReceiverID uint `gorm:"index"`
	TaskID     uint
	BidID      uint
	Kind       MessageKind
	Body       string
	Read       bool `gorm:"default:false"`
	CreatedAt  time.Time
}
