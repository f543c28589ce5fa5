package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskmarket/internal/model"
)

// MessageRepository handles the durable notification records.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListForReceiver returns messages in creation order, oldest first.
func (r *MessageRepository) ListForReceiver(ctx context.Context, receiverID uint) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.db.WithContext(ctx).Where("receiver_id = ?", receiverID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flips the read flag; the receiver check keeps users from marking
// other people's messages.
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, messageID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND receiver_id = ?", messageID, receiverID).
		Update("read", true)
	if res.Error != nil {
		return false, fmt.Errorf("mark message read: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *MessageRepository) UnreadCount(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND read = ?", receiverID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
