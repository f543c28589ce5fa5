package service

import (
	"context"
	"log"

	"taskmarket/internal/payment"
	"taskmarket/internal/repository"
)

// PaymentReconciler polls the payment collaborator for intents that have not
// yet been confirmed through the callback endpoint, and completes the bids
// whose payments went through. Failures on individual bids are logged and the
// sweep continues.
type PaymentReconciler struct {
	bids     *repository.BidRepository
	provider payment.Provider
	svc      *BidService
}

func NewPaymentReconciler(bids *repository.BidRepository, provider payment.Provider, svc *BidService) *PaymentReconciler {
	return &PaymentReconciler{bids: bids, provider: provider, svc: svc}
}

func (r *PaymentReconciler) Reconcile(ctx context.Context) error {
	pending, err := r.bids.ListPaymentPending(ctx)
	if err != nil {
		return err
	}
	for _, bid := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		done, err := r.provider.ConfirmComplete(ctx, bid.PaymentIntentID)
		if err != nil {
			log.Printf("[warn] confirm intent %s: %v", bid.PaymentIntentID, err)
			continue
		}
		if !done {
			continue
		}
		if _, err := r.svc.ConfirmPayment(ctx, bid.PaymentIntentID); err != nil {
			log.Printf("[warn] complete bid %d: %v", bid.ID, err)
		}
	}
	return nil
}
