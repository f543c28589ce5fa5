package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"taskmarket/internal/model"
	"taskmarket/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title           string
	Description     string
	Budget          *decimal.Decimal
	BiddingDeadline *time.Time
}

// TaskService wraps task CRUD around the bidding core.
type TaskService struct {
	tasks *repository.TaskRepository
}

func NewTaskService(tasks *repository.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID uint, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidState("title is required")
	}

	task := model.Task{
		OwnerID:         ownerID,
		Title:           title,
		Description:     input.Description,
		Budget:          input.Budget,
		BiddingDeadline: input.BiddingDeadline,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, dependency(err)
	}

	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("task %d not found", taskID)
		}
		return nil, dependency(err)
	}
	return task, nil
}

func (s *TaskService) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, dependency(err)
	}
	return tasks, nil
}
