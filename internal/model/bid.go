package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus is the lifecycle state of a bid.
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidCompleted BidStatus = "completed"
)

// PaymentStatus tracks the external payment intent attached to an accepted bid.
type PaymentStatus string

const (
	PaymentNone      PaymentStatus = ""
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
)

// Bid is a bidder's proposal against an open task.
type Bid struct {
	ID              uint            `gorm:"primaryKey"`
	TaskID          uint            `gorm:"index"`
	BidderID        uint            `gorm:"index"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2)"`
	Proposal        string
	EstimatedTime   string
	Status          BidStatus `gorm:"index;default:pending"`
	PaymentIntentID string    `gorm:"index"`
	PaymentStatus   PaymentStatus
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
