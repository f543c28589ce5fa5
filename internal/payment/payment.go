package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Intent is the reference handed back by the payment processor.
type Intent struct {
	ID           string
	ClientSecret string
}

// Provider is the external payment processor. The real integration lives
// outside this service; the core only creates intents and asks whether they
// completed.
type Provider interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (Intent, error)
	ConfirmComplete(ctx context.Context, intentID string) (bool, error)
}

type intentState struct {
	amount    decimal.Decimal
	metadata  map[string]string
	completed bool
}

// InMemoryProvider stands in for the processor in local runs and tests.
// Complete simulates the processor-side confirmation.
type InMemoryProvider struct {
	mu      sync.Mutex
	intents map[string]*intentState
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{intents: make(map[string]*intentState)}
}

func (p *InMemoryProvider) CreateIntent(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (Intent, error) {
	id := "pi_" + uuid.NewString()
	p.mu.Lock()
	p.intents[id] = &intentState{amount: amount, metadata: metadata}
	p.mu.Unlock()
	return Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (p *InMemoryProvider) ConfirmComplete(ctx context.Context, intentID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.intents[intentID]
	if !ok {
		return false, fmt.Errorf("unknown intent %q", intentID)
	}
	return state.completed, nil
}

// Complete marks the intent as paid, as the processor callback would.
// Returns false for an unknown intent.
func (p *InMemoryProvider) Complete(intentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.intents[intentID]
	if !ok {
		return false
	}
	state.completed = true
	return true
}
