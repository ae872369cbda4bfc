// Package payment receives asynchronous notifications from the external
// payment processor and forwards verified events into the order lifecycle.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// DefaultTolerance bounds how old a signed timestamp may be before the
// event is rejected as a replay.
const DefaultTolerance = 5 * time.Minute

// Verifier checks the processor's signature header, which has the shape
// "t=<unix>,v1=<hex hmac-sha256>" where the MAC covers "<unix>.<payload>".
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), tolerance: DefaultTolerance, now: time.Now}
}

func (v *Verifier) Verify(payload []byte, header string) error {
	var ts int64
	var sig []byte
	for _, part := range strings.Split(header, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = n
		case "v1":
			b, err := hex.DecodeString(val)
			if err != nil {
				return ErrInvalidSignature
			}
			sig = b
		}
	}
	if ts == 0 || len(sig) == 0 {
		return ErrInvalidSignature
	}

	if d := v.now().Sub(time.Unix(ts, 0)); d > v.tolerance || d < -v.tolerance {
		return ErrInvalidSignature
	}

	expected := ComputeSignature(v.secret, ts, payload)
	if !hmac.Equal(sig, expected) {
		return ErrInvalidSignature
	}
	return nil
}

// ComputeSignature returns the MAC the processor is expected to send.
// Exported so clients and tests can build valid headers.
func ComputeSignature(secret []byte, unixTS int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", unixTS)
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader builds a complete header for the given payload; used by
// tests and local tooling that emulate the processor.
func SignatureHeader(secret []byte, at time.Time, payload []byte) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(ComputeSignature(secret, ts, payload)))
}
