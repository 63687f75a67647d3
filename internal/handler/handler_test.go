package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/estudiopopnest/wellness-booking/internal/middleware"
	"github.com/estudiopopnest/wellness-booking/internal/model"
	"github.com/estudiopopnest/wellness-booking/internal/repository"
	"github.com/estudiopopnest/wellness-booking/internal/service"
	"github.com/estudiopopnest/wellness-booking/internal/stripe"
)

type stubService struct {
	createBookingResp    *model.Booking
	createBookingWarning string
	createBookingErr     error

	saveBookingResp *model.Booking
	saveBookingErr  error

	bookingsResp []model.Booking
	bookingsErr  error

	bookingResp *model.Booking
	bookingErr  error

	rescheduleResp *model.Booking
	rescheduleErr  error

	availabilityResp *model.Availability
	availabilityErr  error

	intentResp *stripe.PaymentIntent
	intentErr  error

	webhookUpdated bool
	webhookErr     error

	purchaseResp *model.Package
	purchaseErr  error

	packagesResp []model.Package
	packagesErr  error

	userPackagesResp *service.UserPackages
	userPackagesErr  error

	userResp  *model.User
	userToken string
	userErr   error

	adminResp  *model.Admin
	adminToken string
	adminErr   error

	forgotErr error
	resetErr  error
}

func (s *stubService) CreateBooking(ctx context.Context, req service.BookingRequest) (*model.Booking, string, error) {
	return s.createBookingResp, s.createBookingWarning, s.createBookingErr
}

func (s *stubService) SaveBooking(ctx context.Context, req service.BookingRequest) (*model.Booking, error) {
	return s.saveBookingResp, s.saveBookingErr
}

func (s *stubService) GetBookings(ctx context.Context) ([]model.Booking, error) {
	return s.bookingsResp, s.bookingsErr
}

func (s *stubService) GetUserBookings(ctx context.Context, email string) ([]model.Booking, error) {
	return s.bookingsResp, s.bookingsErr
}

func (s *stubService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.bookingResp, s.bookingErr
}

func (s *stubService) RescheduleBooking(ctx context.Context, id, newDate, newTime, requesterEmail string) (*model.Booking, error) {
	return s.rescheduleResp, s.rescheduleErr
}

func (s *stubService) Availability(ctx context.Context, className, date, timeSlot string) (*model.Availability, error) {
	return s.availabilityResp, s.availabilityErr
}

func (s *stubService) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, customer model.Customer) (*stripe.PaymentIntent, error) {
	return s.intentResp, s.intentErr
}

func (s *stubService) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*stripe.PaymentIntent, error) {
	return s.intentResp, s.intentErr
}

func (s *stubService) HandleWebhookEvent(ctx context.Context, ev *stripe.Event) (bool, error) {
	return s.webhookUpdated, s.webhookErr
}

func (s *stubService) PurchasePackage(ctx context.Context, req service.PackagePurchaseRequest) (*model.Package, error) {
	return s.purchaseResp, s.purchaseErr
}

func (s *stubService) GetPackages(ctx context.Context) ([]model.Package, error) {
	return s.packagesResp, s.packagesErr
}

func (s *stubService) GetUserPackages(ctx context.Context, email string) (*service.UserPackages, error) {
	return s.userPackagesResp, s.userPackagesErr
}

func (s *stubService) SignUp(ctx context.Context, req service.SignUpRequest) (*model.User, string, error) {
	return s.userResp, s.userToken, s.userErr
}

func (s *stubService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return s.userResp, s.userToken, s.userErr
}

func (s *stubService) SetPassword(ctx context.Context, email, password string) (*model.User, string, error) {
	return s.userResp, s.userToken, s.userErr
}

func (s *stubService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.userResp, s.userErr
}

func (s *stubService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotErr
}

func (s *stubService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetErr
}

func (s *stubService) AdminLogin(ctx context.Context, email, password string) (*model.Admin, string, error) {
	return s.adminResp, s.adminToken, s.adminErr
}

func (s *stubService) AdminForgotPassword(ctx context.Context, email string) error {
	return s.forgotErr
}

func (s *stubService) AdminResetPassword(ctx context.Context, token, newPassword string) error {
	return s.resetErr
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth, "")
}

func TestConfirmBooking_ClassFull(t *testing.T) {
	svc := &stubService{
		createBookingErr: repository.ErrClassFull,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(service.BookingRequest{
		ClassName: "Hatha Yoga",
		Date:      "2024-06-04",
		Time:      "19:30",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/confirm-booking", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ConfirmBooking(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "CLASS_FULL" {
		t.Fatalf("code = %q, want CLASS_FULL", resp.Code)
	}
}

func TestConfirmBooking_NoClassesAvailable(t *testing.T) {
	svc := &stubService{
		createBookingErr: repository.ErrPackageUnavailable,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(service.BookingRequest{
		ClassName:     "Hatha Yoga",
		Date:          "2024-06-04",
		Time:          "19:30",
		PaymentMethod: "package",
		PackageID:     "pkg-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/confirm-booking", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ConfirmBooking(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "NO_CLASSES_AVAILABLE" {
		t.Fatalf("code = %q, want NO_CLASSES_AVAILABLE", resp.Code)
	}
}

func TestConfirmBooking_WarningPassedThrough(t *testing.T) {
	svc := &stubService{
		createBookingResp:    &model.Booking{ID: "b-1", Status: model.BookingStatusConfirmed},
		createBookingWarning: "PaymentIntent no encontrado en Stripe, pero reserva guardada",
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(service.BookingRequest{
		ClassName:       "Hatha Yoga",
		Date:            "2024-06-04",
		Time:            "19:30",
		PaymentIntentID: "pi_123",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/confirm-booking", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ConfirmBooking(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp struct {
		Success bool   `json:"success"`
		Warning string `json:"warning"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false, want true")
	}
	if resp.Warning == "" {
		t.Fatalf("warning missing from response")
	}
}

func TestCreatePaymentIntent_RejectsNonPositiveAmount(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(createIntentRequest{Amount: 0})

	req := httptest.NewRequest(http.MethodPost, "/api/create-payment-intent", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreatePaymentIntent(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestRescheduleBooking_TooSoon(t *testing.T) {
	svc := &stubService{
		rescheduleErr: service.ErrRescheduleTooSoon,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(rescheduleRequest{
		NewDate:   "2024-06-11",
		NewTime:   "19:30",
		UserEmail: "ana@example.com",
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/bookings/b-1/reschedule", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.RescheduleBooking(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestRescheduleBooking_Forbidden(t *testing.T) {
	svc := &stubService{
		rescheduleErr: service.ErrForbidden,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(rescheduleRequest{
		NewDate:   "2024-06-11",
		NewTime:   "19:30",
		UserEmail: "otra@example.com",
	})

	req := httptest.NewRequest(http.MethodPatch, "/api/bookings/b-1/reschedule", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.RescheduleBooking(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
}

func TestGetBookings_RequiresAdminToken(t *testing.T) {
	svc := &stubService{
		bookingsResp: []model.Booking{},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestGetBookings_WithAdminToken(t *testing.T) {
	svc := &stubService{
		bookingsResp: []model.Booking{{ID: "b-1"}},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	token, err := h.authMiddleware.IssueAdminToken(&model.Admin{ID: "a-1", Email: "info@estudiopopnest.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}
}

func TestSignUp_RequiresPhone(t *testing.T) {
	h := newTestHandler(t, &stubService{})

	body, _ := json.Marshal(service.SignUpRequest{
		FirstName: "Ana",
		LastName:  "López",
		Email:     "ana@example.com",
		Password:  "secreta",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.SignUp(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "Todos los campos son requeridos" {
		t.Fatalf("error = %q, want required-fields message", resp.Error)
	}
}

func TestLogin_NeedsPassword(t *testing.T) {
	svc := &stubService{
		userResp: &model.User{ID: "u-1", Email: "ana@example.com", FirstName: "Ana"},
		userErr:  service.ErrPasswordNotSet,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Email: "ana@example.com"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp struct {
		Success       bool `json:"success"`
		NeedsPassword bool `json:"needsPassword"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Fatalf("success = true, want false")
	}
	if !resp.NeedsPassword {
		t.Fatalf("needsPassword = false, want true")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{
		userErr: service.ErrInvalidCredentials,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Email: "ana@example.com", Password: "wrong!"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc := &stubService{
		resetErr: repository.ErrTokenInvalid,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(resetRequest{Token: "deadbeef", NewPassword: "secreta"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ResetPassword(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestWebhook_NoSecretTrustsPayload(t *testing.T) {
	svc := &stubService{
		webhookUpdated: true,
	}
	h := newTestHandler(t, svc)

	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "payment_intent.succeeded",
		"data": map[string]any{
			"object": map[string]any{"id": "pi_123", "status": "succeeded"},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	h.Webhook(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp struct {
		Received bool `json:"received"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Received {
		t.Fatalf("received = false, want true")
	}
}

func TestGetAvailability_JSONResponse(t *testing.T) {
	svc := &stubService{
		availabilityResp: &model.Availability{
			Available:      true,
			CurrentCount:   3,
			MaxBookings:    9,
			RemainingSpots: 6,
		},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/availability/Hatha%20Yoga/2024-06-04/19:30", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp model.Availability
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RemainingSpots != 6 {
		t.Fatalf("remainingSpots = %d, want 6", resp.RemainingSpots)
	}
}

func TestPurchasePackage_RequiresRegistration(t *testing.T) {
	svc := &stubService{
		purchaseErr: service.ErrNotRegistered,
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(service.PackagePurchaseRequest{
		PackageName: "Paquete 10 Clases",
		Classes:     10,
		Customer:    model.Customer{FullName: "Ana López", Email: "ana@example.com"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/packages/purchase", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.PurchasePackage(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}
