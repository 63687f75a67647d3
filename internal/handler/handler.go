// Package handler contains the HTTP handlers of the studio booking API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/estudiopopnest/wellness-booking/internal/middleware"
	"github.com/estudiopopnest/wellness-booking/internal/model"
	"github.com/estudiopopnest/wellness-booking/internal/repository"
	"github.com/estudiopopnest/wellness-booking/internal/service"
	"github.com/estudiopopnest/wellness-booking/internal/stripe"
	"github.com/estudiopopnest/wellness-booking/internal/validation"
)

// Service defines the business logic contract used by the HTTP handlers.
type Service interface {
	CreateBooking(ctx context.Context, req service.BookingRequest) (*model.Booking, string, error)
	SaveBooking(ctx context.Context, req service.BookingRequest) (*model.Booking, error)
	GetBookings(ctx context.Context) ([]model.Booking, error)
	GetUserBookings(ctx context.Context, email string) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	RescheduleBooking(ctx context.Context, id, newDate, newTime, requesterEmail string) (*model.Booking, error)
	Availability(ctx context.Context, className, date, timeSlot string) (*model.Availability, error)

	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, customer model.Customer) (*stripe.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*stripe.PaymentIntent, error)
	HandleWebhookEvent(ctx context.Context, ev *stripe.Event) (bool, error)

	PurchasePackage(ctx context.Context, req service.PackagePurchaseRequest) (*model.Package, error)
	GetPackages(ctx context.Context) ([]model.Package, error)
	GetUserPackages(ctx context.Context, email string) (*service.UserPackages, error)

	SignUp(ctx context.Context, req service.SignUpRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	SetPassword(ctx context.Context, email, password string) (*model.User, string, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	AdminLogin(ctx context.Context, email, password string) (*model.Admin, string, error)
	AdminForgotPassword(ctx context.Context, email string) error
	AdminResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler implements the HTTP handlers of the studio booking API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	webhookSecret  string
}

// NewHandler creates a new HTTP handler.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, webhookSecret string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		webhookSecret:  webhookSecret,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func classFullMessage() string {
	return fmt.Sprintf("Lo sentimos, esta clase ya tiene %d reservaciones para esta fecha y hora. Por favor selecciona otra fecha u hora.", repository.MaxBookingsPerClass)
}

const noClassesMessage = "No tienes clases disponibles en este paquete o el paquete no existe."

// writeBookingError maps the booking lifecycle errors to their wire responses.
func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrClassFull):
		writeErrorCode(w, http.StatusBadRequest, classFullMessage(), "CLASS_FULL")
	case errors.Is(err, repository.ErrPackageUnavailable):
		writeErrorCode(w, http.StatusBadRequest, noClassesMessage, "NO_CLASSES_AVAILABLE")
	case errors.Is(err, service.ErrSlotNotScheduled):
		writeError(w, http.StatusBadRequest, "Esta clase no está programada en esa fecha y hora. Elige otra opción.")
	case errors.Is(err, service.ErrPaymentIntentRequired):
		writeError(w, http.StatusBadRequest, "Payment Intent ID is required for card payments")
	case errors.Is(err, service.ErrPaymentRequired):
		writeError(w, http.StatusBadRequest, "Payment not completed")
	default:
		h.logger.Error("booking error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
	}
}

type customerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type createIntentRequest struct {
	Amount       int64        `json:"amount"`
	Currency     string       `json:"currency"`
	CustomerInfo customerInfo `json:"customerInfo"`
}

// CreatePaymentIntent creates a card payment intent with the gateway.
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "Amount is required and must be greater than 0")
		return
	}

	customer := model.Customer{
		FullName: strings.TrimSpace(req.CustomerInfo.FirstName + " " + req.CustomerInfo.LastName),
		Email:    req.CustomerInfo.Email,
		Phone:    req.CustomerInfo.Phone,
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), req.Amount, req.Currency, customer)
	if err != nil {
		h.logger.Error("create payment intent error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
		"status":          intent.Status,
	})
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// ConfirmPayment attaches a payment method to an intent and confirms it.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.PaymentIntentID == "" || req.PaymentMethodID == "" {
		writeError(w, http.StatusBadRequest, "Payment Intent ID and Payment Method ID are required")
		return
	}

	intent, err := h.service.ConfirmPayment(r.Context(), req.PaymentIntentID, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, stripe.ErrIntentNotFound) {
			writeError(w, http.StatusNotFound, "PaymentIntent no encontrado")
			return
		}
		var apiErr *stripe.APIError
		if errors.As(err, &apiErr) {
			writeErrorCode(w, http.StatusBadRequest, apiErr.Message, apiErr.Code)
			return
		}
		h.logger.Error("confirm payment error", zap.Error(err), zap.String("intent", req.PaymentIntentID))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"paymentIntent": intent,
		"status":        intent.Status,
	})
}

// ConfirmBooking runs the full booking lifecycle for both card and package payments.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, warning, err := h.service.CreateBooking(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	resp := map[string]any{
		"success": true,
		"booking": booking,
	}
	if warning != "" {
		resp["warning"] = warning
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveBooking persists a booking without consulting the gateway.
func (h *Handler) SaveBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	booking, err := h.service.SaveBooking(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"booking": booking,
	})
}

// GetBookings returns every booking, newest first.
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.GetBookings(r.Context())
	if err != nil {
		h.logger.Error("get bookings error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// GetUserBookings returns a customer's confirmed bookings, soonest first.
func (h *Handler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !validation.IsValidEmail(email) {
		writeError(w, http.StatusBadRequest, "Email es requerido")
		return
	}

	bookings, err := h.service.GetUserBookings(r.Context(), validation.NormalizeEmail(email))
	if err != nil {
		h.logger.Error("get user bookings error", zap.Error(err), zap.String("email", email))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// GetBooking returns one booking by id.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	booking, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.logger.Error("get booking error", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

type rescheduleRequest struct {
	NewDate   string `json:"newDate"`
	NewTime   string `json:"newTime"`
	UserEmail string `json:"userEmail"`
}

// RescheduleBooking moves a booking to a new slot.
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.NewDate == "" || req.NewTime == "" {
		writeError(w, http.StatusBadRequest, "Debes indicar la nueva fecha y hora (newDate, newTime).")
		return
	}
	if !validation.IsValidDate(req.NewDate) || !validation.IsValidTime(req.NewTime) {
		writeError(w, http.StatusBadRequest, "Debes indicar la nueva fecha y hora (newDate, newTime).")
		return
	}

	booking, err := h.service.RescheduleBooking(r.Context(), id, req.NewDate, req.NewTime, req.UserEmail)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			writeError(w, http.StatusNotFound, "Reserva no encontrada.")
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "No puedes reagendar esta reserva.")
		case errors.Is(err, service.ErrRescheduleTooSoon):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Solo puedes reagendar con al menos %d horas de anticipación a la clase. Esta clase es en menos de %d horas.", service.RescheduleMinHours, service.RescheduleMinHours))
		case errors.Is(err, service.ErrRescheduleNoChange):
			writeError(w, http.StatusBadRequest, "La nueva fecha y hora son iguales a la actual. Elige otra opción.")
		case errors.Is(err, repository.ErrClassFull):
			writeError(w, http.StatusBadRequest, "No hay lugares disponibles en esa fecha y hora. Elige otra opción.")
		default:
			h.logger.Error("reschedule booking error", zap.Error(err), zap.String("id", id))
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"booking": booking,
	})
}

// GetAvailability reports the remaining capacity of one class slot.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	className := chi.URLParam(r, "className")
	date := chi.URLParam(r, "date")
	timeSlot := chi.URLParam(r, "time")

	if !validation.IsValidDate(date) || !validation.IsValidTime(timeSlot) {
		writeError(w, http.StatusBadRequest, "Fecha u hora inválida")
		return
	}

	availability, err := h.service.Availability(r.Context(), className, date, timeSlot)
	if err != nil {
		h.logger.Error("availability error", zap.Error(err), zap.String("class", className))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

// Webhook receives gateway payment events and reconciles booking statuses.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := stripe.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := h.service.HandleWebhookEvent(r.Context(), event)
	if err != nil {
		h.logger.Error("webhook handling error", zap.Error(err), zap.String("type", event.Type))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if !updated && (event.Type == stripe.EventPaymentSucceeded || event.Type == stripe.EventPaymentFailed) {
		h.logger.Info("webhook event matched no booking",
			zap.String("type", event.Type), zap.String("intent", event.Data.Object.ID))
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

// PurchasePackage records a multi-class package purchase.
func (h *Handler) PurchasePackage(w http.ResponseWriter, r *http.Request) {
	var req service.PackagePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Customer.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Se requiere información del cliente",
		})
		return
	}

	purchase, err := h.service.PurchasePackage(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRegistered):
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   "Debes estar registrado e iniciar sesión para comprar un paquete",
			})
		case errors.Is(err, service.ErrRegistrationIncomplete):
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   "Debes completar tu registro estableciendo una contraseña antes de comprar un paquete",
			})
		default:
			h.logger.Error("purchase package error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "Error interno del servidor",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"purchase": purchase,
	})
}

// GetPackages returns every package purchase.
func (h *Handler) GetPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.service.GetPackages(r.Context())
	if err != nil {
		h.logger.Error("get packages error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	if packages == nil {
		packages = []model.Package{}
	}
	writeJSON(w, http.StatusOK, packages)
}

// GetUserPackages returns a customer's usable packages and combined credit.
func (h *Handler) GetUserPackages(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if !validation.IsValidEmail(email) {
		writeError(w, http.StatusBadRequest, "Email es requerido")
		return
	}

	packages, err := h.service.GetUserPackages(r.Context(), validation.NormalizeEmail(email))
	if err != nil {
		h.logger.Error("get user packages error", zap.Error(err), zap.String("email", email))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, packages)
}

// SignUp registers a new customer account.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Todos los campos son requeridos",
		})
		return
	}
	if !validation.IsValidEmail(req.Email) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "El correo electrónico no es válido",
		})
		return
	}
	req.Email = validation.NormalizeEmail(req.Email)

	user, token, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "La contraseña debe tener al menos 6 caracteres",
			})
		case errors.Is(err, repository.ErrUserExists):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Este correo electrónico ya está registrado",
			})
		default:
			h.logger.Error("signup error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false,
				"error":   "Error interno del servidor",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a customer. Auto-created accounts without a password get
// a needsPassword signal instead of a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email es requerido")
		return
	}

	user, token, err := h.service.Login(r.Context(), validation.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordNotSet):
			writeJSON(w, http.StatusOK, map[string]any{
				"success":       false,
				"needsPassword": true,
				"message":       "Este usuario fue creado automáticamente. Por favor establece una contraseña para continuar.",
				"user": map[string]any{
					"id":        user.ID,
					"email":     user.Email,
					"firstName": user.FirstName,
					"lastName":  user.LastName,
				},
			})
		case errors.Is(err, service.ErrInvalidCredentials):
			if req.Password == "" {
				writeError(w, http.StatusBadRequest, "Contraseña es requerida")
				return
			}
			writeError(w, http.StatusUnauthorized, "Credenciales inválidas")
		default:
			h.logger.Error("login error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

// SetPassword completes an auto-created account by storing its first password.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email y contraseña son requeridos")
		return
	}

	user, token, err := h.service.SetPassword(r.Context(), validation.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			writeError(w, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
		case errors.Is(err, repository.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "Usuario no encontrado")
		case errors.Is(err, service.ErrPasswordAlreadySet):
			writeError(w, http.StatusBadRequest, "Este usuario ya tiene una contraseña establecida")
		default:
			h.logger.Error("set password error", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
		"message": "Contraseña establecida exitosamente",
	})
}

// GetUserByEmail returns the customer profile for an email.
func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	user, err := h.service.GetUserByEmail(r.Context(), validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		h.logger.Error("get user error", zap.Error(err), zap.String("email", email))
		writeError(w, http.StatusInternalServerError, "Error interno del servidor")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ForgotPassword issues a reset token for a customer. The response never
// reveals whether the email is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "El correo es requerido"})
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("forgot password error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Error interno del servidor"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Si existe una cuenta con ese correo, recibirás un enlace para restablecer tu contraseña.",
	})
}

// ResetPassword consumes a reset token and stores the new customer password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Token y nueva contraseña son requeridos"})
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "La contraseña debe tener al menos 6 caracteres"})
		case errors.Is(err, repository.ErrTokenInvalid):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Enlace inválido o expirado. Solicita uno nuevo."})
		case errors.Is(err, repository.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Usuario no encontrado"})
		default:
			h.logger.Error("reset password error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Error interno del servidor"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Contraseña actualizada. Ya puedes iniciar sesión.",
	})
}

// AdminLogin authenticates a back-office administrator.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Email y contraseña son requeridos"})
		return
	}

	admin, token, err := h.service.AdminLogin(r.Context(), validation.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Credenciales inválidas"})
			return
		}
		h.logger.Error("admin login error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Error interno del servidor"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admin":   admin,
		"token":   token,
	})
}

// AdminForgotPassword issues an admin reset token without revealing whether
// the email exists.
func (h *Handler) AdminForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "El correo es requerido"})
		return
	}

	if err := h.service.AdminForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("admin forgot password error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Error interno del servidor"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Si existe una cuenta de administrador con ese correo, recibirás un enlace para restablecer tu contraseña.",
	})
}

// AdminResetPassword consumes an admin reset token and stores the new password.
func (h *Handler) AdminResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Token y nueva contraseña son requeridos"})
		return
	}

	if err := h.service.AdminResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "La contraseña debe tener al menos 6 caracteres"})
		case errors.Is(err, repository.ErrTokenInvalid):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Enlace inválido o expirado. Solicita uno nuevo."})
		case errors.Is(err, repository.ErrAdminNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Administrador no encontrado"})
		default:
			h.logger.Error("admin reset password error", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Error interno del servidor"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Contraseña actualizada. Ya puedes iniciar sesión en el panel de administración.",
	})
}

// Root describes the API for anyone poking the base URL.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Estudio Popnest Wellness API Server",
		"status":  "running",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":   "/api/health",
			"bookings": "/api/bookings",
			"auth":     "/api/auth/login, /api/auth/signup",
			"packages": "/api/packages",
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
