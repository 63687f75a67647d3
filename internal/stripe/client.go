// Package stripe provides a client for the Stripe card-payment API.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

// ErrInvalidAmount is returned when a payment intent is requested for a
// non-positive amount.
var (
	ErrInvalidAmount = errors.New("amount must be greater than 0")
	// ErrIntentNotFound is returned when the referenced payment intent does not exist.
	ErrIntentNotFound = errors.New("payment intent not found")
)

// Client encapsulates the HTTP interaction with the Stripe API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// PaymentIntent describes a Stripe payment intent in the fields this service uses.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// CustomerInfo is attached to a payment intent as metadata.
type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

// APIError carries a Stripe error response, including which call step produced it.
type APIError struct {
	Step       string
	Code       string
	Type       string
	Message    string
	HTTPStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe %s: %s (code=%s, type=%s)", e.Step, e.Message, e.Code, e.Type)
}

// NewClient creates a Stripe client for the given secret key.
func NewClient(secretKey string) *Client {
	return NewClientWithBaseURL(secretKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a Stripe client against a custom API base URL.
func NewClientWithBaseURL(secretKey, baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePaymentIntent creates a card payment intent for the given amount in
// minor currency units. The payment method is attached later by the frontend.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, customer CustomerInfo) (*PaymentIntent, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Add("payment_method_types[]", "card")
	form.Set("metadata[customer_name]", customer.Name)
	form.Set("metadata[customer_email]", customer.Email)
	form.Set("metadata[customer_phone]", customer.Phone)

	return c.doIntent(ctx, http.MethodPost, "/v1/payment_intents", form, "create")
}

// RetrievePaymentIntent fetches the current state of a payment intent.
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	return c.doIntent(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, "retrieve")
}

// ConfirmPaymentIntent attaches the payment method to the intent and confirms
// it. Each sub-step can fail independently; the returned *APIError names the
// step that failed.
func (c *Client) ConfirmPaymentIntent(ctx context.Context, id, paymentMethodID string) (*PaymentIntent, error) {
	attach := url.Values{}
	attach.Set("payment_method", paymentMethodID)

	path := "/v1/payment_intents/" + url.PathEscape(id)
	if _, err := c.doIntent(ctx, http.MethodPost, path, attach, "attach"); err != nil {
		return nil, err
	}

	return c.doIntent(ctx, http.MethodPost, path+"/confirm", nil, "confirm")
}

func (c *Client) doIntent(ctx context.Context, method, path string, form url.Values, step string) (*PaymentIntent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, step)
	}

	var intent PaymentIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &intent, nil
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) decodeError(resp *http.Response, step string) error {
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{
			Step:       step,
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
			HTTPStatus: resp.StatusCode,
		}
	}

	apiErr := &APIError{
		Step:       step,
		Code:       env.Error.Code,
		Type:       env.Error.Type,
		Message:    env.Error.Message,
		HTTPStatus: resp.StatusCode,
	}

	if resp.StatusCode == http.StatusNotFound || env.Error.Code == "resource_missing" {
		return fmt.Errorf("%w: %s", ErrIntentNotFound, apiErr.Message)
	}

	return apiErr
}
