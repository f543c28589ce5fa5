package notify

import (
	"context"
	"testing"

	"taskmarket/internal/model"
	"taskmarket/internal/repository"
	"taskmarket/internal/testutil"
)

func newDispatcherFixture(t *testing.T) (*Dispatcher, *repository.MessageRepository, *Registry) {
	t.Helper()
	db := testutil.NewTestDB(t)
	messages := repository.NewMessageRepository(db)
	registry := NewRegistry()
	return NewDispatcher(messages, registry, nil), messages, registry
}

func TestDispatchPersistsWithoutLiveConnection(t *testing.T) {
	d, messages, _ := newDispatcherFixture(t)
	ctx := context.Background()

	d.Dispatch(ctx, Notification{
		Kind:       EventBidAccepted,
		SenderID:   1,
		ReceiverID: 2,
		TaskID:     10,
		BidID:      20,
		Body:       "Your bid was accepted",
	})

	got, err := messages.ListForReceiver(ctx, 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d messages, want exactly 1", len(got))
	}
	msg := got[0]
	if msg.Kind != model.MessageBidAccepted || msg.TaskID != 10 || msg.BidID != 20 || msg.Read {
		t.Errorf("message = %+v, want unread bid_accepted for task 10 bid 20", msg)
	}
}

func TestDispatchPushesToEveryLiveHandle(t *testing.T) {
	d, messages, registry := newDispatcherFixture(t)
	ctx := context.Background()

	h1 := NewStreamHandle(4)
	h2 := NewStreamHandle(4)
	registry.Register(2, h1)
	registry.Register(2, h2)

	// A closed handle must not break delivery to the others.
	dead := NewStreamHandle(4)
	dead.Close()
	registry.Register(2, dead)

	d.Dispatch(ctx, Notification{
		Kind:       EventBidSubmitted,
		SenderID:   3,
		ReceiverID: 2,
		TaskID:     10,
		BidID:      20,
		Body:       "New bid",
	})

	for i, h := range []*StreamHandle{h1, h2} {
		select {
		case ev := <-h.Events():
			if ev.Type != EventBidSubmitted || ev.UserID != 3 {
				t.Errorf("handle %d event = %+v, want bid_submitted from user 3", i, ev)
			}
		default:
			t.Errorf("handle %d received no event", i)
		}
	}

	// The durable record is written exactly once regardless of pushes.
	got, err := messages.ListForReceiver(ctx, 2)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d messages, want exactly 1", len(got))
	}
}
