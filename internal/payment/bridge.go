package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/northwind/storefront/internal/order"
)

// OrderConfirmer is the slice of the order lifecycle the bridge drives.
type OrderConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID, paymentID, paymentStatus, payerEmail string) (*order.Order, error)
	RecordPaymentFailure(ctx context.Context, orderID, paymentID string) error
}

// Bridge verifies inbound processor events and forwards each event id into
// the order lifecycle once per successful delivery; a failed forward frees
// the id so the processor's retry is not dropped. Confirmation itself is
// idempotent too; the dedupe just keeps redeliveries from repeat work.
type Bridge struct {
	verifier *Verifier
	orders   OrderConfirmer
	seen     DedupeStore
	log      *zap.Logger
}

func NewBridge(verifier *Verifier, orders OrderConfirmer, seen DedupeStore, log *zap.Logger) *Bridge {
	return &Bridge{verifier: verifier, orders: orders, seen: seen, log: log}
}

// HandleEvent processes one raw webhook delivery. Unverifiable payloads
// never reach the order lifecycle.
func (b *Bridge) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	if err := b.verifier.Verify(payload, sigHeader); err != nil {
		return err
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if ev.ID == "" || ev.Metadata.OrderID == "" {
		return fmt.Errorf("event missing id or order reference")
	}

	first, err := b.seen.FirstDelivery(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("dedupe check: %w", err)
	}
	if !first {
		b.log.Info("webhook_event_redelivered", zap.String("event_id", ev.ID))
		return nil
	}

	// The id is marked consumed up front; if forwarding fails the mark is
	// released so the processor's redelivery gets another attempt instead
	// of being dropped as a duplicate.
	if err := b.dispatch(ctx, ev); err != nil {
		if rerr := b.seen.Release(ctx, ev.ID); rerr != nil {
			b.log.Error("webhook_event_release_failed",
				zap.String("event_id", ev.ID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

func (b *Bridge) dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventPaymentSucceeded:
		_, err := b.orders.ConfirmPayment(ctx, ev.Metadata.OrderID, ev.PaymentID, ev.Status, ev.PayerEmail)
		return err
	case EventPaymentFailed:
		return b.orders.RecordPaymentFailure(ctx, ev.Metadata.OrderID, ev.PaymentID)
	default:
		b.log.Info("webhook_event_ignored",
			zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return nil
	}
}
