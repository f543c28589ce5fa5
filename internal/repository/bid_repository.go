package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskmarket/internal/model"
)

// BidRepository handles CRUD for bids.
type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Create(ctx context.Context, bid *model.Bid) error {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return fmt.Errorf("create bid: %w", err)
	}
	return nil
}

func (r *BidRepository) FindByID(ctx context.Context, bidID uint) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).First(&bid, bidID).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *BidRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*model.Bid, error) {
	var bid model.Bid
	if err := r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&bid).Error; err != nil {
		return nil, err
	}
	return &bid, nil
}

func (r *BidRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// ListReceived returns all bids placed on tasks owned by the given user.
func (r *BidRepository) ListReceived(ctx context.Context, ownerID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = bids.task_id").
		Where("tasks.owner_id = ?", ownerID).
		Order("bids.created_at DESC").
		Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("list received bids: %w", err)
	}
	return bids, nil
}

// ListPlaced returns all bids the given user has submitted.
func (r *BidRepository) ListPlaced(ctx context.Context, bidderID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).Where("bidder_id = ?", bidderID).
		Order("created_at DESC").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// UpdateStatusIf moves a bid from one status to another as a single
// conditional update. Returns false when the bid was not in the expected
// status, leaving it untouched.
func (r *BidRepository) UpdateStatusIf(ctx context.Context, bidID uint, from, to model.BidStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ? AND status = ?", bidID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update bid status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *BidRepository) SetPaymentIntent(ctx context.Context, bidID uint, intentID string) error {
	if err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ?", bidID).
		Updates(map[string]interface{}{
			"payment_intent_id": intentID,
			"payment_status":    model.PaymentPending,
		}).Error; err != nil {
		return fmt.Errorf("set payment intent: %w", err)
	}
	return nil
}

func (r *BidRepository) SetPaymentStatus(ctx context.Context, bidID uint, status model.PaymentStatus) error {
	if err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ?", bidID).
		Update("payment_status", status).Error; err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}

// ListPaymentPending returns accepted bids with an intent awaiting
// confirmation, for the reconcile loop.
func (r *BidRepository) ListPaymentPending(ctx context.Context) ([]model.Bid, error) {
	var bids []model.Bid
	if err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ?", model.BidAccepted, model.PaymentPending).
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// MarkCompleted stamps the completion time after the status flip.
func (r *BidRepository) MarkCompleted(ctx context.Context, bidID uint, completedAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Bid{}).
		Where("id = ?", bidID).
		Update("completed_at", completedAt).Error; err != nil {
		return fmt.Errorf("mark bid completed: %w", err)
	}
	return nil
}
