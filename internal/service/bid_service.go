package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"taskmarket/internal/model"
	"taskmarket/internal/notify"
	"taskmarket/internal/payment"
	"taskmarket/internal/repository"
)

// BidInput represents data required to submit a bid.
type BidInput struct {
	Amount        decimal.Decimal
	Proposal      string
	EstimatedTime string
}

// OpenInput carries the optional parameters for opening a task to bids.
type OpenInput struct {
	Deadline *time.Time
	Budget   *decimal.Decimal
}

// BidListing is a bid enriched with counterpart display info: the bidder for
// bids received, the task owner for bids placed.
type BidListing struct {
	Bid             model.Bid
	TaskTitle       string
	CounterpartID   uint
	CounterpartName string
}

// BidService enforces the legal state transitions of task/bid pairs. It is
// the single point of truth for whether a task is still open, who won, and
// whether payment has happened.
type BidService struct {
	tasks      *repository.TaskRepository
	bids       *repository.BidRepository
	users      *repository.UserRepository
	dispatcher *notify.Dispatcher
	provider   payment.Provider
	ownerEcho  bool
	now        func() time.Time
}

func NewBidService(tasks *repository.TaskRepository, bids *repository.BidRepository, users *repository.UserRepository, dispatcher *notify.Dispatcher, provider payment.Provider, ownerEcho bool) *BidService {
	return &BidService{
		tasks:      tasks,
		bids:       bids,
		users:      users,
		dispatcher: dispatcher,
		provider:   provider,
		ownerEcho:  ownerEcho,
		now:        time.Now,
	}
}

// OpenForBidding puts the task into the accepting state. Only the owner may
// open a task, and a task that already has a winner stays closed for good.
func (s *BidService) OpenForBidding(ctx context.Context, actorID, taskID uint, in OpenInput) (*model.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actorID {
		return nil, forbidden("only the task owner can open bidding")
	}
	if task.Won() {
		return nil, invalidState("task already has a winning bid")
	}

	if err := s.tasks.OpenForBidding(ctx, taskID, in.Deadline, in.Budget); err != nil {
		return nil, dependency(err)
	}

	task.AcceptingBids = true
	task.BiddingDeadline = in.Deadline
	task.Budget = in.Budget
	return task, nil
}

// SubmitBid creates a pending bid and notifies the task owner.
func (s *BidService) SubmitBid(ctx context.Context, bidderID, taskID uint, in BidInput) (*model.Bid, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if bidderID == task.OwnerID {
		return nil, forbidden("cannot bid on your own task")
	}
	if !task.AcceptingBids {
		return nil, invalidState("task is not accepting bids")
	}
	if task.BiddingDeadline != nil && s.now().After(*task.BiddingDeadline) {
		return nil, invalidState("bidding deadline has passed")
	}

	bid := model.Bid{
		TaskID:        taskID,
		BidderID:      bidderID,
		Amount:        in.Amount,
		Proposal:      in.Proposal,
		EstimatedTime: in.EstimatedTime,
		Status:        model.BidPending,
	}
	if err := s.bids.Create(ctx, &bid); err != nil {
		return nil, dependency(err)
	}

	s.dispatcher.Dispatch(ctx, notify.Notification{
		Kind:       notify.EventBidSubmitted,
		SenderID:   bidderID,
		ReceiverID: task.OwnerID,
		TaskID:     taskID,
		BidID:      bid.ID,
		Body:       fmt.Sprintf("New bid of %s on %q", in.Amount.StringFixed(2), task.Title),
	})

	return &bid, nil
}

// AcceptBid records the winning bid. The claim in the store is conditional on
// no winner being set, so concurrent accepts on the same task resolve to
// exactly one success. Other pending bids stay pending until the owner
// rejects them explicitly.
func (s *BidService) AcceptBid(ctx context.Context, actorID, taskID, bidID uint) (*model.Bid, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actorID {
		return nil, forbidden("only the task owner can accept a bid")
	}
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.TaskID != taskID {
		return nil, invalidState("bid does not belong to this task")
	}
	if bid.Status != model.BidPending {
		return nil, invalidState("bid is not pending")
	}
	if task.Won() {
		return nil, invalidState("task already has a winning bid")
	}

	claimed, err := s.tasks.AcceptBid(ctx, taskID, bidID)
	if err != nil {
		return nil, dependency(err)
	}
	if !claimed {
		return nil, invalidState("task already has a winning bid")
	}

	bid.Status = model.BidAccepted

	s.dispatcher.Dispatch(ctx, notify.Notification{
		Kind:       notify.EventBidAccepted,
		SenderID:   actorID,
		ReceiverID: bid.BidderID,
		TaskID:     taskID,
		BidID:      bidID,
		Body:       fmt.Sprintf("Your bid of %s on %q was accepted", bid.Amount.StringFixed(2), task.Title),
	})
	s.acceptEcho(ctx, task, bid)

	return bid, nil
}

// acceptEcho sends the owner their own confirmation of the acceptance. The
// behavior is deliberate and can be switched off via configuration.
func (s *BidService) acceptEcho(ctx context.Context, task *model.Task, bid *model.Bid) {
	if !s.ownerEcho {
		return
	}
	s.dispatcher.Dispatch(ctx, notify.Notification{
		Kind:       notify.EventBidAccepted,
		SenderID:   task.OwnerID,
		ReceiverID: task.OwnerID,
		TaskID:     task.ID,
		BidID:      bid.ID,
		Body:       fmt.Sprintf("You accepted a bid of %s on %q", bid.Amount.StringFixed(2), task.Title),
	})
}

// RejectBid turns a pending bid down. Other bids and the task's accepting
// flag are untouched.
func (s *BidService) RejectBid(ctx context.Context, actorID, taskID, bidID uint) (*model.Bid, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actorID {
		return nil, forbidden("only the task owner can reject a bid")
	}
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.TaskID != taskID {
		return nil, invalidState("bid does not belong to this task")
	}

	moved, err := s.bids.UpdateStatusIf(ctx, bidID, model.BidPending, model.BidRejected)
	if err != nil {
		return nil, dependency(err)
	}
	if !moved {
		return nil, invalidState("bid is not pending")
	}

	bid.Status = model.BidRejected

	s.dispatcher.Dispatch(ctx, notify.Notification{
		Kind:       notify.EventBidRejected,
		SenderID:   actorID,
		ReceiverID: bid.BidderID,
		TaskID:     taskID,
		BidID:      bidID,
		Body:       fmt.Sprintf("Your bid on %q was declined", task.Title),
	})

	return bid, nil
}

// InitiatePayment asks the payment collaborator for an intent covering the
// winning bid's amount and records the reference. Confirmation arrives later
// through ConfirmPayment or the reconcile loop.
func (s *BidService) InitiatePayment(ctx context.Context, actorID, taskID uint) (*payment.Intent, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != actorID {
		return nil, forbidden("only the task owner can initiate payment")
	}
	if !task.Won() {
		return nil, invalidState("task has no winning bid")
	}

	bid, err := s.loadBid(ctx, *task.WinningBidID)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, bid.Amount, map[string]string{
		"task_id": fmt.Sprint(task.ID),
		"bid_id":  fmt.Sprint(bid.ID),
	})
	if err != nil {
		return nil, dependency(err)
	}

	if err := s.bids.SetPaymentIntent(ctx, bid.ID, intent.ID); err != nil {
		return nil, dependency(err)
	}

	return &intent, nil
}

// ConfirmPayment is the externally triggered confirmation leg: the processor
// callback names the intent, we mark the payment succeeded and complete the
// bid.
func (s *BidService) ConfirmPayment(ctx context.Context, intentID string) (*model.Bid, error) {
	bid, err := s.bids.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("no bid for payment intent %q", intentID)
		}
		return nil, dependency(err)
	}
	if err := s.bids.SetPaymentStatus(ctx, bid.ID, model.PaymentSucceeded); err != nil {
		return nil, dependency(err)
	}
	bid.PaymentStatus = model.PaymentSucceeded
	return s.completeBid(ctx, bid)
}

// CompleteBid transitions an accepted bid to completed. Only legal once the
// payment status reports success.
func (s *BidService) CompleteBid(ctx context.Context, bidID uint) (*model.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	return s.completeBid(ctx, bid)
}

func (s *BidService) completeBid(ctx context.Context, bid *model.Bid) (*model.Bid, error) {
	if bid.Status != model.BidAccepted {
		return nil, invalidState("bid is not accepted")
	}
	if bid.PaymentStatus != model.PaymentSucceeded {
		return nil, invalidState("payment has not completed")
	}

	task, err := s.loadTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}

	moved, err := s.bids.UpdateStatusIf(ctx, bid.ID, model.BidAccepted, model.BidCompleted)
	if err != nil {
		return nil, dependency(err)
	}
	if !moved {
		return nil, invalidState("bid is not accepted")
	}

	completedAt := s.now()
	if err := s.bids.MarkCompleted(ctx, bid.ID, completedAt); err != nil {
		return nil, dependency(err)
	}
	if err := s.tasks.MarkCompleted(ctx, task.ID, bid.BidderID, completedAt); err != nil {
		return nil, dependency(err)
	}

	bid.Status = model.BidCompleted
	bid.CompletedAt = &completedAt

	s.dispatcher.Dispatch(ctx, notify.Notification{
		Kind:       notify.EventPaymentCompleted,
		SenderID:   task.OwnerID,
		ReceiverID: bid.BidderID,
		TaskID:     task.ID,
		BidID:      bid.ID,
		Body:       fmt.Sprintf("Payment of %s for %q completed", bid.Amount.StringFixed(2), task.Title),
	})

	return bid, nil
}

// BidsReceived lists bids on the owner's tasks, each with the bidder's
// display info.
func (s *BidService) BidsReceived(ctx context.Context, ownerID uint) ([]BidListing, error) {
	bids, err := s.bids.ListReceived(ctx, ownerID)
	if err != nil {
		return nil, dependency(err)
	}
	return s.enrich(ctx, bids, func(bid model.Bid, task model.Task) uint {
		return bid.BidderID
	})
}

// BidsPlaced lists the bidder's own bids, each with the task owner's display
// info.
func (s *BidService) BidsPlaced(ctx context.Context, bidderID uint) ([]BidListing, error) {
	bids, err := s.bids.ListPlaced(ctx, bidderID)
	if err != nil {
		return nil, dependency(err)
	}
	return s.enrich(ctx, bids, func(bid model.Bid, task model.Task) uint {
		return task.OwnerID
	})
}

func (s *BidService) enrich(ctx context.Context, bids []model.Bid, counterpart func(model.Bid, model.Task) uint) ([]BidListing, error) {
	taskIDs := make([]uint, 0, len(bids))
	for _, bid := range bids {
		taskIDs = append(taskIDs, bid.TaskID)
	}
	tasks, err := s.tasks.FindByIDs(ctx, taskIDs)
	if err != nil {
		return nil, dependency(err)
	}

	userIDs := make([]uint, 0, len(bids))
	for _, bid := range bids {
		userIDs = append(userIDs, counterpart(bid, tasks[bid.TaskID]))
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, dependency(err)
	}

	listings := make([]BidListing, 0, len(bids))
	for _, bid := range bids {
		task := tasks[bid.TaskID]
		cpID := counterpart(bid, task)
		listing := BidListing{
			Bid:           bid,
			TaskTitle:     task.Title,
			CounterpartID: cpID,
		}
		if u, ok := users[cpID]; ok {
			listing.CounterpartName = u.DisplayName
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *BidService) loadTask(ctx context.Context, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("task %d not found", taskID)
		}
		return nil, dependency(err)
	}
	return task, nil
}

func (s *BidService) loadBid(ctx context.Context, bidID uint) (*model.Bid, error) {
	bid, err := s.bids.FindByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("bid %d not found", bidID)
		}
		return nil, dependency(err)
	}
	return bid, nil
}
