package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind/storefront/internal/order"
)

type fakeConfirmer struct {
	confirmed  []string // order ids
	failed     []string
	confirmErr error // returned once, then cleared
}

func (f *fakeConfirmer) ConfirmPayment(ctx context.Context, orderID, paymentID, status, email string) (*order.Order, error) {
	if f.confirmErr != nil {
		err := f.confirmErr
		f.confirmErr = nil
		return nil, err
	}
	f.confirmed = append(f.confirmed, orderID)
	return &order.Order{ID: orderID, IsPaid: true, Status: order.StatusProcessing}, nil
}

func (f *fakeConfirmer) RecordPaymentFailure(ctx context.Context, orderID, paymentID string) error {
	f.failed = append(f.failed, orderID)
	return nil
}

type memDedupe struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDedupe() *memDedupe { return &memDedupe{seen: map[string]bool{}} }

func (m *memDedupe) FirstDelivery(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memDedupe) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
	return nil
}

func signedBridge(t *testing.T, confirmer *fakeConfirmer) (*Bridge, func(payload []byte) string) {
	t.Helper()
	now := time.Unix(1700000000, 0)
	v := newTestVerifier("whsec_test", now)
	b := NewBridge(v, confirmer, newMemDedupe(), zap.NewNop())
	sign := func(payload []byte) string {
		return SignatureHeader([]byte("whsec_test"), now, payload)
	}
	return b, sign
}

func eventJSON(id, typ, orderID string) []byte {
	return fmt.Appendf(nil,
		`{"id":%q,"type":%q,"payment_id":"pi_123","status":"succeeded","payer_email":"a@b.com","metadata":{"order_id":%q}}`,
		id, typ, orderID)
}

func TestBridge_SucceededEventConfirmsOrder(t *testing.T) {
	conf := &fakeConfirmer{}
	b, sign := signedBridge(t, conf)

	payload := eventJSON("evt_1", EventPaymentSucceeded, "order-1")
	require.NoError(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	require.Equal(t, []string{"order-1"}, conf.confirmed)
	require.Empty(t, conf.failed)
}

func TestBridge_RedeliveredEventForwardedOnce(t *testing.T) {
	conf := &fakeConfirmer{}
	b, sign := signedBridge(t, conf)

	payload := eventJSON("evt_1", EventPaymentSucceeded, "order-1")
	for i := 0; i < 3; i++ {
		require.NoError(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	}
	require.Len(t, conf.confirmed, 1)
}

func TestBridge_FailedConfirmationRetriedOnRedelivery(t *testing.T) {
	conf := &fakeConfirmer{confirmErr: errors.New("storage unavailable")}
	b, sign := signedBridge(t, conf)

	payload := eventJSON("evt_1", EventPaymentSucceeded, "order-1")
	err := b.HandleEvent(context.Background(), payload, sign(payload))
	require.Error(t, err)
	require.Empty(t, conf.confirmed)

	// The failed forward must not consume the event id: the processor's
	// redelivery has to reach the order lifecycle.
	require.NoError(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	require.Equal(t, []string{"order-1"}, conf.confirmed)
}

func TestBridge_FailedEventRecordsFailure(t *testing.T) {
	conf := &fakeConfirmer{}
	b, sign := signedBridge(t, conf)

	payload := eventJSON("evt_2", EventPaymentFailed, "order-2")
	require.NoError(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	require.Equal(t, []string{"order-2"}, conf.failed)
	require.Empty(t, conf.confirmed)
}

func TestBridge_UnknownEventTypeIgnored(t *testing.T) {
	conf := &fakeConfirmer{}
	b, sign := signedBridge(t, conf)

	payload := eventJSON("evt_3", "refund_issued", "order-3")
	require.NoError(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	require.Empty(t, conf.confirmed)
	require.Empty(t, conf.failed)
}

func TestBridge_InvalidSignatureNeverReachesOrders(t *testing.T) {
	conf := &fakeConfirmer{}
	b, _ := signedBridge(t, conf)

	payload := eventJSON("evt_4", EventPaymentSucceeded, "order-4")
	err := b.HandleEvent(context.Background(), payload, "t=1700000000,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Empty(t, conf.confirmed)
}

func TestBridge_MissingOrderReferenceRejected(t *testing.T) {
	conf := &fakeConfirmer{}
	b, sign := signedBridge(t, conf)

	payload := []byte(`{"id":"evt_5","type":"payment_succeeded","metadata":{}}`)
	require.Error(t, b.HandleEvent(context.Background(), payload, sign(payload)))
	require.Empty(t, conf.confirmed)
}
