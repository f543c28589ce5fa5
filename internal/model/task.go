package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is a unit of work that can be opened for competitive bidding.
type Task struct {
	ID              uint `gorm:"primaryKey"`
	OwnerID         uint `gorm:"index"`
	AssigneeID      *uint
	Title           string
	Description     string
	AcceptingBids   bool `gorm:"default:false"`
	BiddingDeadline *time.Time
	WinningBidID    *uint
	Budget          *decimal.Decimal `gorm:"type:decimal(15,2)"`
	IsCompleted     bool             `gorm:"default:false"`
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Won reports whether a winning bid has been recorded.
func (t *Task) Won() bool {
	return t.WinningBidID != nil
}
