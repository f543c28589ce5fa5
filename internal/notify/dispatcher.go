package notify

import (
	"context"
	"log"

	"taskmarket/internal/model"
	"taskmarket/internal/repository"
)

// Notification is one lifecycle event addressed to a single receiver.
type Notification struct {
	Kind       EventType
	SenderID   uint
	ReceiverID uint
	TaskID     uint
	BidID      uint
	Body       string
}

// Dispatcher fans a lifecycle event out to the durable message channel and,
// when the receiver is connected, the live push channel. Neither leg may fail
// the originating state transition: persistence errors are logged, push
// errors are dropped outright.
type Dispatcher struct {
	messages *repository.MessageRepository
	registry *Registry
	bridge   *TelegramBridge // nil when no bot token is configured
}

func NewDispatcher(messages *repository.MessageRepository, registry *Registry, bridge *TelegramBridge) *Dispatcher {
	return &Dispatcher{messages: messages, registry: registry, bridge: bridge}
}

// Dispatch persists the message record, then pushes to every live handle of
// the receiver and mirrors to the Telegram bridge when one is linked.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	msg := model.Message{
		SenderID:   n.SenderID,
		ReceiverID: n.ReceiverID,
		TaskID:     n.TaskID,
		BidID:      n.BidID,
		Kind:       model.MessageKind(n.Kind),
		Body:       n.Body,
	}
	if err := d.messages.Create(ctx, &msg); err != nil {
		log.Printf("[warn] persist notification for user %d: %v", n.ReceiverID, err)
	}

	ev := Event{Type: n.Kind, TaskID: n.TaskID, BidID: n.BidID, UserID: n.SenderID}
	for _, h := range d.registry.HandlesFor(n.ReceiverID) {
		// Best effort; the persisted message above is the fallback.
		_ = h.Send(ev)
	}

	if d.bridge != nil {
		if err := d.bridge.Notify(ctx, n.ReceiverID, n.Body); err != nil {
			log.Printf("[warn] telegram notify user %d: %v", n.ReceiverID, err)
		}
	}
}
