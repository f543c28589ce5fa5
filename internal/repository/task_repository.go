package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"taskmarket/internal/model"
)

// errNotClaimed signals a conditional update that matched no rows; it only
// exists to roll back the surrounding transaction.
var errNotClaimed = errors.New("not claimed")

// TaskRepository handles CRUD for tasks and owns the winning-bid claim.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByIDs loads the given tasks into a map keyed by id.
func (r *TaskRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]model.Task, error) {
	tasks := make(map[uint]model.Task, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}
	var rows []model.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	for _, t := range rows {
		tasks[t.ID] = t
	}
	return tasks, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// OpenForBidding flips the task into the accepting state with an optional
// deadline and budget.
func (r *TaskRepository) OpenForBidding(ctx context.Context, taskID uint, deadline *time.Time, budget *decimal.Decimal) error {
	updates := map[string]interface{}{
		"accepting_bids":   true,
		"bidding_deadline": deadline,
		"budget":           budget,
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("open for bidding: %w", err)
	}
	return nil
}

// AcceptBid atomically records the winning bid and moves the bid to accepted.
// The claim is a single conditional update keyed on the absence of a winning
// bid, so two concurrent accepts on the same task cannot both succeed. The
// returned bool is false when the task was already won or the bid was no
// longer pending; the caller decides how to report that.
func (r *TaskRepository) AcceptBid(ctx context.Context, taskID, bidID uint) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND winning_bid_id IS NULL", taskID).
			Updates(map[string]interface{}{
				"winning_bid_id": bidID,
				"accepting_bids": false,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}

		res = tx.Model(&model.Bid{}).
			Where("id = ? AND task_id = ? AND status = ?", bidID, taskID, model.BidPending).
			Update("status", model.BidAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotClaimed
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errNotClaimed):
		return false, nil
	default:
		return false, fmt.Errorf("accept bid: %w", err)
	}
}

// MarkCompleted closes the task and records the assignee who completed it.
func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID, assigneeID uint, completedAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": completedAt,
			"assignee_id":  assigneeID,
		}).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
