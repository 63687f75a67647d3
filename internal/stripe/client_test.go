package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePaymentIntent_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Fatalf("authorization = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("amount"); got != "35000" {
			t.Fatalf("amount = %q, want 35000", got)
		}
		if got := r.PostForm.Get("currency"); got != "mxn" {
			t.Fatalf("currency = %q, want mxn", got)
		}
		if got := r.PostForm.Get("metadata[customer_email]"); got != "ana@example.com" {
			t.Fatalf("metadata email = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PaymentIntent{
			ID:           "pi_123",
			ClientSecret: "pi_123_secret",
			Amount:       35000,
			Currency:     "mxn",
			Status:       "requires_payment_method",
		})
	}))
	defer ts.Close()

	c := NewClientWithBaseURL("sk_test_123", ts.URL)

	intent, err := c.CreatePaymentIntent(context.Background(), 35000, "MXN", CustomerInfo{
		Name:  "Ana García",
		Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("CreatePaymentIntent: %v", err)
	}
	if intent.ID != "pi_123" {
		t.Fatalf("id = %q, want pi_123", intent.ID)
	}
	if intent.ClientSecret != "pi_123_secret" {
		t.Fatalf("client secret = %q", intent.ClientSecret)
	}
}

func TestCreatePaymentIntent_InvalidAmount(t *testing.T) {
	c := NewClient("sk_test_123")

	_, err := c.CreatePaymentIntent(context.Background(), 0, "mxn", CustomerInfo{})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestRetrievePaymentIntent_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"resource_missing","type":"invalid_request_error","message":"No such payment_intent"}}`))
	}))
	defer ts.Close()

	c := NewClientWithBaseURL("sk_test_123", ts.URL)

	_, err := c.RetrievePaymentIntent(context.Background(), "pi_missing")
	if !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("err = %v, want ErrIntentNotFound", err)
	}
}

func TestConfirmPaymentIntent_AttachStepFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first call is the payment-method attach; fail it
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","type":"card_error","message":"Your card was declined."}}`))
	}))
	defer ts.Close()

	c := NewClientWithBaseURL("sk_test_123", ts.URL)

	_, err := c.ConfirmPaymentIntent(context.Background(), "pi_123", "pm_456")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Step != "attach" {
		t.Fatalf("step = %q, want attach", apiErr.Step)
	}
	if apiErr.Code != "card_declined" {
		t.Fatalf("code = %q, want card_declined", apiErr.Code)
	}
}

func TestConfirmPaymentIntent_OK(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PaymentIntent{ID: "pi_123", Status: "succeeded"})
	}))
	defer ts.Close()

	c := NewClientWithBaseURL("sk_test_123", ts.URL)

	intent, err := c.ConfirmPaymentIntent(context.Background(), "pi_123", "pm_456")
	if err != nil {
		t.Fatalf("ConfirmPaymentIntent: %v", err)
	}
	if intent.Status != "succeeded" {
		t.Fatalf("status = %q, want succeeded", intent.Status)
	}
	if len(calls) != 2 || calls[0] != "/v1/payment_intents/pi_123" || calls[1] != "/v1/payment_intents/pi_123/confirm" {
		t.Fatalf("unexpected call sequence: %v", calls)
	}
}
