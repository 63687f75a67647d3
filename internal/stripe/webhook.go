package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrSignatureInvalid is returned when the webhook signature header does not
// match the payload.
var ErrSignatureInvalid = errors.New("webhook signature verification failed")

// signatureTolerance bounds how old a signed webhook timestamp may be.
const signatureTolerance = 5 * time.Minute

// Event is a Stripe webhook event, reduced to the fields this service handles.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object PaymentIntent `json:"object"`
	} `json:"data"`
}

// Event types this service reconciles bookings against.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ConstructEvent parses a webhook payload, verifying the Stripe-Signature
// header against the endpoint secret. When no secret is configured the payload
// is trusted verbatim; that path is for development only and must not be
// enabled in production.
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	if secret != "" {
		if err := verifySignature(payload, sigHeader, secret, time.Now()); err != nil {
			return nil, err
		}
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	return &ev, nil
}

// verifySignature checks the v1 scheme: HMAC-SHA256 of "<t>.<payload>" keyed
// with the endpoint secret, carried as "t=<unix>,v1=<hex>[,v1=<hex>...]".
func verifySignature(payload []byte, sigHeader, secret string, now time.Time) error {
	var ts int64 = -1
	var signatures [][]byte

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrSignatureInvalid)
			}
			ts = parsed
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if ts < 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed header", ErrSignatureInvalid)
	}

	if now.Sub(time.Unix(ts, 0)) > signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return ErrSignatureInvalid
}
