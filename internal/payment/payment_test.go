package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInMemoryProvider(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()

	intent, err := p.CreateIntent(ctx, decimal.NewFromInt(80), map[string]string{"task_id": "1"})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		t.Fatalf("intent = %+v, want id and client secret", intent)
	}

	done, err := p.ConfirmComplete(ctx, intent.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if done {
		t.Fatal("intent reports complete before payment")
	}

	if !p.Complete(intent.ID) {
		t.Fatal("complete returned false for a known intent")
	}
	done, err = p.ConfirmComplete(ctx, intent.ID)
	if err != nil {
		t.Fatalf("confirm after complete: %v", err)
	}
	if !done {
		t.Fatal("intent not complete after payment")
	}

	if p.Complete("pi_missing") {
		t.Error("complete returned true for an unknown intent")
	}
	if _, err := p.ConfirmComplete(ctx, "pi_missing"); err == nil {
		t.Error("confirm of unknown intent should error")
	}
}
