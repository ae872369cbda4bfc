package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVerifier(secret string, at time.Time) *Verifier {
	v := NewVerifier(secret)
	v.now = func() time.Time { return at }
	return v
}

func TestVerify_ValidSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := newTestVerifier("whsec_test", now)
	payload := []byte(`{"id":"evt_1","type":"payment_succeeded"}`)

	header := SignatureHeader([]byte("whsec_test"), now, payload)
	require.NoError(t, v.Verify(payload, header))
}

func TestVerify_TamperedPayload(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := newTestVerifier("whsec_test", now)

	header := SignatureHeader([]byte("whsec_test"), now, []byte(`{"id":"evt_1"}`))
	err := v.Verify([]byte(`{"id":"evt_2"}`), header)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := newTestVerifier("whsec_test", now)
	payload := []byte(`{}`)

	header := SignatureHeader([]byte("other_secret"), now, payload)
	require.ErrorIs(t, v.Verify(payload, header), ErrInvalidSignature)
}

func TestVerify_StaleTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	v := newTestVerifier("whsec_test", now)
	payload := []byte(`{}`)

	header := SignatureHeader([]byte("whsec_test"), now.Add(-DefaultTolerance-time.Minute), payload)
	require.ErrorIs(t, v.Verify(payload, header), ErrInvalidSignature)
}

func TestVerify_MalformedHeader(t *testing.T) {
	v := newTestVerifier("whsec_test", time.Unix(1700000000, 0))
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=1700000000", "t=1700000000,v1=zz"} {
		require.ErrorIs(t, v.Verify([]byte(`{}`), header), ErrInvalidSignature, "header %q", header)
	}
}
