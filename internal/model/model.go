// Package model contains the domain entities of the studio booking service.
package model

import "time"

// BookingStatus describes the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// PaymentMethod identifies how a booking was paid for.
type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodPackage PaymentMethod = "package"
)

// Payment statuses mirror the card processor's vocabulary.
const (
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusPending   = "pending"
)

// Customer is the contact snapshot stored on bookings and purchases.
type Customer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Payment is the payment sub-record embedded in bookings and purchases.
type Payment struct {
	Method      PaymentMethod `json:"method"`
	AmountCents int64         `json:"amount"`
	Currency    string        `json:"currency"`
	CardLast4   string        `json:"cardLast4,omitempty"`
	Status      string        `json:"status"`
}

// PackageInfo is the snapshot of a package attached to a booking that
// consumed one of its credits.
type PackageInfo struct {
	PackageID        string `json:"packageId"`
	PackageName      string `json:"packageName"`
	ClassesRemaining int    `json:"classesRemaining"`
}

// Booking represents a reservation of one seat in a class slot.
type Booking struct {
	ID              string        `json:"id"`
	ClassName       string        `json:"className"`
	TeacherName     string        `json:"teacherName,omitempty"`
	Date            string        `json:"date"` // 2006-01-02
	Time            string        `json:"time"` // 15:04
	FormattedDate   string        `json:"formattedDate,omitempty"`
	Customer        Customer      `json:"customer"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Payment         Payment       `json:"payment"`
	PackageInfo     *PackageInfo  `json:"packageInfo,omitempty"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	Status          BookingStatus `json:"status"`
	Note            string        `json:"note,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// SlotDateTime combines the booking's date and time into a single instant
// in the given location.
func (b *Booking) SlotDateTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
}

// Package represents a purchased multi-class package and its remaining credit.
type Package struct {
	ID               string        `json:"id"`
	PackageName      string        `json:"packageName"`
	Classes          int           `json:"classes"`
	ClassesRemaining int           `json:"classesRemaining"`
	ClassesUsed      int           `json:"classesUsed"`
	Customer         Customer      `json:"customer"`
	UserID           string        `json:"userId"`
	Payment          Payment       `json:"payment"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"createdAt"`
	ExpiresAt        *time.Time    `json:"expiresAt,omitempty"`
	LastUsed         *time.Time    `json:"lastUsed,omitempty"`
}

// Usable reports whether the package can still be debited at the given moment.
func (p *Package) Usable(now time.Time) bool {
	if p.Status != BookingStatusConfirmed {
		return false
	}
	if p.ClassesRemaining <= 0 {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return true
}

// User represents a studio customer. Accounts created automatically during a
// package purchase have no password hash until the customer sets one.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash []byte    `json:"-"`
	AutoCreated  bool      `json:"autoCreated"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasPassword reports whether the user completed registration.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}

// Admin represents a back-office administrator account.
type Admin struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TokenAudience distinguishes the two reset-token collections.
type TokenAudience string

const (
	TokenAudienceUser  TokenAudience = "user"
	TokenAudienceAdmin TokenAudience = "admin"
)

// Availability is the read-only capacity projection for one class slot.
type Availability struct {
	Available      bool `json:"available"`
	CurrentCount   int  `json:"currentCount"`
	MaxBookings    int  `json:"maxBookings"`
	RemainingSpots int  `json:"remainingSpots"`
}
