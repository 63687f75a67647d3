// Package service implements the business logic of the studio booking service:
// the booking lifecycle, package credit accounting, and account flows.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/estudiopopnest/wellness-booking/internal/catalog"
	"github.com/estudiopopnest/wellness-booking/internal/model"
	"github.com/estudiopopnest/wellness-booking/internal/repository"
	"github.com/estudiopopnest/wellness-booking/internal/stripe"
)

// resetTokenTTL bounds how long a password-reset link stays valid.
const resetTokenTTL = time.Hour

// minPasswordLength is the studio's password policy.
const minPasswordLength = 6

// packageValidityMonths is how long a purchased package stays usable.
const packageValidityMonths = 2

// Default admin account, created on first start if absent.
const (
	defaultAdminEmail = "info@estudiopopnest.com"
	defaultAdminName  = "Administrador Principal"
)

// ErrPaymentRequired is returned when the payment intent exists but has not succeeded.
var (
	ErrPaymentRequired = errors.New("payment not completed")
	// ErrPaymentIntentRequired is returned when a card booking carries no intent id.
	ErrPaymentIntentRequired = errors.New("payment intent id is required")
	// ErrSlotNotScheduled is returned when the requested slot is not on the class's weekly schedule.
	ErrSlotNotScheduled = errors.New("class is not scheduled at that date and time")
	// ErrRescheduleTooSoon is returned when less than 48 hours remain before the current slot.
	ErrRescheduleTooSoon = errors.New("too close to class time to reschedule")
	// ErrRescheduleNoChange is returned when the requested slot equals the current one.
	ErrRescheduleNoChange = errors.New("new date and time equal the current ones")
	// ErrForbidden is returned when the requester does not own the booking.
	ErrForbidden = errors.New("booking belongs to another customer")
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordNotSet is returned when an auto-created account tries to log in
	// before choosing a password.
	ErrPasswordNotSet = errors.New("password not set")
	// ErrPasswordAlreadySet is returned when set-password targets a completed account.
	ErrPasswordAlreadySet = errors.New("password already set")
	// ErrPasswordTooShort is returned when a password is below the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	// ErrNotRegistered is returned when a package purchase names an unknown customer.
	ErrNotRegistered = errors.New("customer is not registered")
	// ErrRegistrationIncomplete is returned when a package purchase comes from an
	// auto-created account without a password.
	ErrRegistrationIncomplete = errors.New("registration incomplete, password required")
)

// RescheduleMinHours is the minimum notice for moving a booking. Exactly 48
// hours before the slot is still allowed.
const RescheduleMinHours = 48

// Repository describes the data access contract used by the service.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	SetUserPassword(ctx context.Context, userID string, hash []byte) error

	CreateAdminIfMissing(ctx context.Context, a *model.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)
	UpdateAdminPassword(ctx context.Context, email string, hash []byte) error

	CreateBooking(ctx context.Context, b *model.Booking, debitPackageID string) (*model.Package, error)
	CountConfirmedBookings(ctx context.Context, className, date, timeSlot string) (int, error)
	GetBookings(ctx context.Context) ([]model.Booking, error)
	GetBookingsByEmail(ctx context.Context, email string) ([]model.Booking, error)
	GetBookingByID(ctx context.Context, id string) (*model.Booking, error)
	RescheduleBooking(ctx context.Context, id, newDate, newTime, formattedDate string) (*model.Booking, error)
	UpdateBookingPaymentStatus(ctx context.Context, paymentIntentID, paymentStatus string, status model.BookingStatus) (bool, error)

	CreatePackage(ctx context.Context, p *model.Package) error
	GetPackages(ctx context.Context) ([]model.Package, error)
	GetActivePackagesByEmail(ctx context.Context, email string) ([]model.Package, error)
	ConsumePackageCredit(ctx context.Context, packageID, email string) (*model.Package, error)

	SaveResetToken(ctx context.Context, email, token string, audience model.TokenAudience, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token string, audience model.TokenAudience) (string, error)
}

// PaymentGateway describes the card-processor calls the lifecycle needs.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, customer stripe.CustomerInfo) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, id, paymentMethodID string) (*stripe.PaymentIntent, error)
}

// Mailer describes the fire-and-forget mail sends the service triggers.
type Mailer interface {
	SendWelcome(to, firstName string)
	SendPasswordReset(to, token string)
	SendAdminPasswordReset(to, token string)
}

// TokenIssuer mints the bearer credentials returned by the auth endpoints.
type TokenIssuer interface {
	IssueUserToken(u *model.User) (string, error)
	IssueAdminToken(a *model.Admin) (string, error)
}

// Service holds the studio's business logic.
type Service struct {
	repo    Repository
	gateway PaymentGateway
	catalog *catalog.Catalog
	mailer  Mailer
	tokens  TokenIssuer

	now func() time.Time
}

// NewService creates the service. gateway and mailer may be nil when the
// corresponding integration is not configured.
func NewService(repo Repository, gateway PaymentGateway, cat *catalog.Catalog, mailer Mailer, tokens TokenIssuer) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		catalog: cat,
		mailer:  mailer,
		tokens:  tokens,
		now:     time.Now,
	}
}

// Close releases the service's resources.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// BookingRequest carries the client-supplied data for a new booking.
type BookingRequest struct {
	ClassName       string         `json:"className"`
	TeacherName     string         `json:"teacherName"`
	Date            string         `json:"date"`
	Time            string         `json:"time"`
	Customer        model.Customer `json:"customer"`
	PaymentMethod   string         `json:"paymentMethod"`
	PackageID       string         `json:"packageId"`
	Payment         model.Payment  `json:"payment"`
	PaymentIntentID string         `json:"paymentIntentId"`
}

func (s *Service) buildBooking(req BookingRequest) *model.Booking {
	method := model.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = model.PaymentMethodCard
	}

	b := &model.Booking{
		ID:              uuid.NewString(),
		ClassName:       req.ClassName,
		TeacherName:     req.TeacherName,
		Date:            req.Date,
		Time:            req.Time,
		FormattedDate:   FormatSpanishDate(req.Date),
		Customer:        req.Customer,
		PaymentMethod:   method,
		Payment:         req.Payment,
		PaymentIntentID: req.PaymentIntentID,
		CreatedAt:       s.now(),
	}
	b.Payment.Method = method
	if b.Payment.Currency == "" {
		b.Payment.Currency = "mxn"
	}
	return b
}

func (s *Service) hasSlot(req BookingRequest) bool {
	return req.ClassName != "" && req.Date != "" && req.Time != ""
}

// CreateBooking runs the full booking lifecycle: schedule and capacity
// validation, then package debit or card-payment verification, then the
// persisted write (which re-checks capacity under the slot lock). The returned
// warning is non-empty on the trust-the-client fallback path.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*model.Booking, string, error) {
	if s.hasSlot(req) {
		if !s.catalog.IsScheduledSlot(req.ClassName, req.Date, req.Time) {
			return nil, "", ErrSlotNotScheduled
		}

		count, err := s.repo.CountConfirmedBookings(ctx, req.ClassName, req.Date, req.Time)
		if err != nil {
			return nil, "", err
		}
		if count >= repository.MaxBookingsPerClass {
			return nil, "", repository.ErrClassFull
		}
	}

	if model.PaymentMethod(req.PaymentMethod) == model.PaymentMethodPackage {
		return s.createPackageBooking(ctx, req)
	}

	return s.createCardBooking(ctx, req)
}

func (s *Service) createPackageBooking(ctx context.Context, req BookingRequest) (*model.Booking, string, error) {
	if req.PackageID == "" || req.Customer.Email == "" {
		return nil, "", repository.ErrPackageUnavailable
	}

	b := s.buildBooking(req)
	b.Status = model.BookingStatusConfirmed
	b.Payment.Status = model.PaymentStatusSucceeded
	b.Payment.AmountCents = 0

	if _, err := s.repo.CreateBooking(ctx, b, req.PackageID); err != nil {
		return nil, "", err
	}

	return b, "", nil
}

func (s *Service) createCardBooking(ctx context.Context, req BookingRequest) (*model.Booking, string, error) {
	if req.PaymentIntentID == "" {
		return nil, "", ErrPaymentIntentRequired
	}

	b := s.buildBooking(req)

	intent, err := s.retrieveIntent(ctx, req.PaymentIntentID)
	if err != nil {
		// Named policy: when the gateway cannot produce the intent, the
		// frontend has already shown the customer a successful charge, so the
		// booking is kept rather than lost. The webhook remains the
		// reconciliation path.
		b.Status = model.BookingStatusConfirmed
		b.Payment.Status = model.PaymentStatusSucceeded
		b.Note = "PaymentIntent no encontrado en Stripe, pero pago confirmado en frontend"

		if _, err := s.repo.CreateBooking(ctx, b, ""); err != nil {
			return nil, "", err
		}
		return b, "PaymentIntent no encontrado en Stripe, pero reserva guardada", nil
	}

	if intent.Status != model.PaymentStatusSucceeded {
		return nil, "", fmt.Errorf("%w: intent status %s", ErrPaymentRequired, intent.Status)
	}

	b.Status = model.BookingStatusConfirmed
	b.Payment.Status = intent.Status

	if _, err := s.repo.CreateBooking(ctx, b, ""); err != nil {
		return nil, "", err
	}

	return b, "", nil
}

func (s *Service) retrieveIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if s.gateway == nil {
		return nil, errors.New("payment gateway not configured")
	}
	return s.gateway.RetrievePaymentIntent(ctx, id)
}

// SaveBooking persists a booking without consulting the gateway; the lifecycle
// status is derived from the payment state carried in the request.
func (s *Service) SaveBooking(ctx context.Context, req BookingRequest) (*model.Booking, error) {
	b := s.buildBooking(req)

	isPackage := model.PaymentMethod(req.PaymentMethod) == model.PaymentMethodPackage
	if req.Payment.Status == model.PaymentStatusSucceeded || isPackage {
		b.Status = model.BookingStatusConfirmed
	} else {
		b.Status = model.BookingStatusPending
	}

	debitPackageID := ""
	if isPackage && req.PackageID != "" && req.Customer.Email != "" {
		debitPackageID = req.PackageID
	}

	if _, err := s.repo.CreateBooking(ctx, b, debitPackageID); err != nil {
		return nil, err
	}

	return b, nil
}

// GetBookings returns every booking.
func (s *Service) GetBookings(ctx context.Context) ([]model.Booking, error) {
	return s.repo.GetBookings(ctx)
}

// GetUserBookings returns the customer's confirmed bookings, soonest first.
func (s *Service) GetUserBookings(ctx context.Context, email string) ([]model.Booking, error) {
	return s.repo.GetBookingsByEmail(ctx, email)
}

// GetBooking returns one booking by id.
func (s *Service) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// RescheduleBooking moves a booking to a new slot. It enforces ownership, the
// 48-hour notice rule against the current slot, rejects no-op moves, and the
// target slot's capacity.
func (s *Service) RescheduleBooking(ctx context.Context, id, newDate, newTime, requesterEmail string) (*model.Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := strings.ToLower(strings.TrimSpace(b.Customer.Email))
	if owner == "" || (requesterEmail != "" && strings.ToLower(strings.TrimSpace(requesterEmail)) != owner) {
		return nil, ErrForbidden
	}

	slotAt, err := b.SlotDateTime(time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse booking slot: %w", err)
	}
	if slotAt.Sub(s.now()) < RescheduleMinHours*time.Hour {
		return nil, ErrRescheduleTooSoon
	}

	if b.Date == newDate && b.Time == newTime {
		return nil, ErrRescheduleNoChange
	}

	return s.repo.RescheduleBooking(ctx, id, newDate, newTime, FormatSpanishDate(newDate))
}

// Availability is the read-only capacity projection for one slot.
func (s *Service) Availability(ctx context.Context, className, date, timeSlot string) (*model.Availability, error) {
	count, err := s.repo.CountConfirmedBookings(ctx, className, date, timeSlot)
	if err != nil {
		return nil, err
	}

	remaining := repository.MaxBookingsPerClass - count
	if remaining < 0 {
		remaining = 0
	}

	return &model.Availability{
		Available:      count < repository.MaxBookingsPerClass,
		CurrentCount:   count,
		MaxBookings:    repository.MaxBookingsPerClass,
		RemainingSpots: remaining,
	}, nil
}

// CreatePaymentIntent asks the gateway for a new card payment intent.
func (s *Service) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, customer model.Customer) (*stripe.PaymentIntent, error) {
	if s.gateway == nil {
		return nil, errors.New("payment gateway not configured")
	}
	if currency == "" {
		currency = "mxn"
	}
	return s.gateway.CreatePaymentIntent(ctx, amountCents, currency, stripe.CustomerInfo{
		Name:  customer.FullName,
		Email: customer.Email,
		Phone: customer.Phone,
	})
}

// ConfirmPayment attaches a payment method to the intent and confirms it.
func (s *Service) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*stripe.PaymentIntent, error) {
	if s.gateway == nil {
		return nil, errors.New("payment gateway not configured")
	}
	return s.gateway.ConfirmPaymentIntent(ctx, intentID, paymentMethodID)
}

// HandleWebhookEvent reconciles a booking against a gateway-side payment
// outcome. This is the only path that flips a pending card booking to
// confirmed without the original request thread. Returns whether a booking
// was updated.
func (s *Service) HandleWebhookEvent(ctx context.Context, ev *stripe.Event) (bool, error) {
	switch ev.Type {
	case stripe.EventPaymentSucceeded:
		return s.repo.UpdateBookingPaymentStatus(ctx, ev.Data.Object.ID,
			model.PaymentStatusSucceeded, model.BookingStatusConfirmed)
	case stripe.EventPaymentFailed:
		return s.repo.UpdateBookingPaymentStatus(ctx, ev.Data.Object.ID,
			model.PaymentStatusFailed, model.BookingStatusPending)
	default:
		return false, nil
	}
}

// PackagePurchaseRequest carries the client-supplied data for a package purchase.
type PackagePurchaseRequest struct {
	PackageName string         `json:"packageName"`
	Classes     int            `json:"classes"`
	Customer    model.Customer `json:"customer"`
	Payment     model.Payment  `json:"payment"`
}

// PurchasePackage records a package purchase for a registered customer. The
// package carries its full credit and expires two months after purchase.
func (s *Service) PurchasePackage(ctx context.Context, req PackagePurchaseRequest) (*model.Package, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Customer.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, ErrRegistrationIncomplete
	}

	classes := req.Classes
	if classes <= 0 {
		classes = 10
	}

	now := s.now()
	expiresAt := now.AddDate(0, packageValidityMonths, 0)

	status := model.BookingStatusPending
	if req.Payment.Status == model.PaymentStatusSucceeded {
		status = model.BookingStatusConfirmed
	}

	p := &model.Package{
		ID:               uuid.NewString(),
		PackageName:      req.PackageName,
		Classes:          classes,
		ClassesRemaining: classes,
		ClassesUsed:      0,
		Customer:         req.Customer,
		UserID:           user.ID,
		Payment:          req.Payment,
		Status:           status,
		CreatedAt:        now,
		ExpiresAt:        &expiresAt,
	}

	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// UserPackages is the per-customer package summary.
type UserPackages struct {
	Packages              []model.Package `json:"packages"`
	TotalClassesRemaining int             `json:"totalClassesRemaining"`
	HasActivePackages     bool            `json:"hasActivePackages"`
}

// GetUserPackages returns the customer's usable packages and their combined credit.
func (s *Service) GetUserPackages(ctx context.Context, email string) (*UserPackages, error) {
	packages, err := s.repo.GetActivePackagesByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, p := range packages {
		total += p.ClassesRemaining
	}

	return &UserPackages{
		Packages:              packages,
		TotalClassesRemaining: total,
		HasActivePackages:     len(packages) > 0,
	}, nil
}

// GetPackages returns every package purchase.
func (s *Service) GetPackages(ctx context.Context) ([]model.Package, error) {
	return s.repo.GetPackages(ctx)
}

// SignUpRequest carries a new customer registration.
type SignUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// SignUp registers a customer. An existing auto-created account (no password)
// is upgraded in place instead of rejected.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*model.User, string, error) {
	if len(req.Password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", err
	}

	if existing != nil {
		if existing.HasPassword() {
			return nil, "", repository.ErrUserExists
		}

		existing.FirstName = req.FirstName
		existing.LastName = req.LastName
		existing.Phone = strings.TrimSpace(req.Phone)
		existing.PasswordHash = hash
		existing.AutoCreated = false

		if err := s.repo.UpdateUser(ctx, existing); err != nil {
			return nil, "", err
		}

		token, err := s.tokens.IssueUserToken(existing)
		if err != nil {
			return nil, "", fmt.Errorf("issue token: %w", err)
		}
		return existing, token, nil
	}

	u := &model.User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	if s.mailer != nil {
		go s.mailer.SendWelcome(u.Email, u.FirstName)
	}

	token, err := s.tokens.IssueUserToken(u)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return u, token, nil
}

// Login authenticates a customer. For auto-created accounts the user is
// returned alongside ErrPasswordNotSet so the caller can prompt for one.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !u.HasPassword() {
		return u, "", ErrPasswordNotSet
	}

	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueUserToken(u)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return u, token, nil
}

// SetPassword completes an auto-created account by storing its first password.
func (s *Service) SetPassword(ctx context.Context, email, password string) (*model.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u.HasPassword() {
		return nil, "", ErrPasswordAlreadySet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.SetUserPassword(ctx, u.ID, hash); err != nil {
		return nil, "", err
	}
	u.PasswordHash = hash
	u.AutoCreated = false

	token, err := s.tokens.IssueUserToken(u)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return u, token, nil
}

// GetUserByEmail returns the customer with the given email.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ForgotPassword issues a reset token and mails the link. It deliberately
// succeeds whether or not the email is registered, so callers cannot probe
// which addresses exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	if err := s.repo.SaveResetToken(ctx, normalized, token, model.TokenAudienceUser, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if s.mailer != nil {
		go s.mailer.SendPasswordReset(u.Email, token)
	}

	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	email, err := s.repo.ConsumeResetToken(ctx, token, model.TokenAudienceUser)
	if err != nil {
		return err
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.SetUserPassword(ctx, u.ID, hash)
}

// AdminLogin authenticates an administrator.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*model.Admin, string, error) {
	a, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAdminToken(a)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return a, token, nil
}

// AdminForgotPassword issues an admin reset token; like ForgotPassword it
// never reveals whether the email exists.
func (s *Service) AdminForgotPassword(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))

	a, err := s.repo.GetAdminByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	if err := s.repo.SaveResetToken(ctx, normalized, token, model.TokenAudienceAdmin, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if s.mailer != nil {
		go s.mailer.SendAdminPasswordReset(a.Email, token)
	}

	return nil
}

// AdminResetPassword consumes an admin reset token and stores the new password.
func (s *Service) AdminResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	email, err := s.repo.ConsumeResetToken(ctx, token, model.TokenAudienceAdmin)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdateAdminPassword(ctx, email, hash)
}

// EnsureDefaultAdmin seeds the default administrator account on first start.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}

	return s.repo.CreateAdminIfMissing(ctx, &model.Admin{
		ID:           uuid.NewString(),
		Email:        defaultAdminEmail,
		Name:         defaultAdminName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
}
