// Package repository contains the PostgreSQL data access implementation.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/estudiopopnest/wellness-booking/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MaxBookingsPerClass is the studio's fixed seat limit per class slot.
const MaxBookingsPerClass = 9

// ErrUserExists is returned when creating a user whose email is already registered.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrAdminNotFound is returned when no admin matches the lookup.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrBookingNotFound is returned when no booking matches the lookup.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrClassFull is returned when a slot already holds the maximum number of confirmed bookings.
	ErrClassFull = errors.New("class is full")
	// ErrPackageUnavailable is returned when a package cannot be debited: it does
	// not exist, belongs to someone else, has no credit left, or has expired.
	ErrPackageUnavailable = errors.New("no classes available in package")
	// ErrTokenInvalid is returned for unknown or expired reset tokens.
	ErrTokenInvalid = errors.New("reset token invalid or expired")
)

// PostgresRepository provides access to the studio's PostgreSQL storage.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository and initializes the schema via migrations.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser creates a new user. Email uniqueness is enforced by the database.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, phone, password_hash, auto_created, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.AutoCreated, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns a user by email, matched case-insensitively.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone, password_hash, auto_created, created_at
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.AutoCreated, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// UpdateUser overwrites a user's profile fields and password hash.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, phone = $4, password_hash = $5, auto_created = $6
		 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Phone, u.PasswordHash, u.AutoCreated,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetUserPassword stores a new password hash for the user.
func (r *PostgresRepository) SetUserPassword(ctx context.Context, userID string, hash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, auto_created = FALSE WHERE id = $1`,
		userID, hash,
	)
	if err != nil {
		return fmt.Errorf("set user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateAdminIfMissing inserts an admin account unless the email is already present.
func (r *PostgresRepository) CreateAdminIfMissing(ctx context.Context, a *model.Admin) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admins (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO NOTHING`,
		a.ID, a.Email, a.Name, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// GetAdminByEmail returns an admin account by email.
func (r *PostgresRepository) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM admins WHERE lower(email) = lower($1)`,
		email,
	)

	var a model.Admin
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	return &a, nil
}

// UpdateAdminPassword stores a new password hash for the admin with the given email.
func (r *PostgresRepository) UpdateAdminPassword(ctx context.Context, email string, hash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE admins SET password_hash = $2 WHERE lower(email) = lower($1)`,
		email, hash,
	)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

const bookingColumns = `id, class_name, teacher_name, to_char(class_date, 'YYYY-MM-DD'), class_time,
	formatted_date, customer_name, customer_email, customer_phone,
	payment_method, payment_amount, payment_currency, card_last4, payment_status,
	package_id, package_name, package_classes_remaining, payment_intent_id, status, note, created_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b                model.Booking
		packageID        *string
		packageName      *string
		packageRemaining *int
		intentID         *string
	)

	err := row.Scan(
		&b.ID, &b.ClassName, &b.TeacherName, &b.Date, &b.Time,
		&b.FormattedDate, &b.Customer.FullName, &b.Customer.Email, &b.Customer.Phone,
		&b.PaymentMethod, &b.Payment.AmountCents, &b.Payment.Currency, &b.Payment.CardLast4, &b.Payment.Status,
		&packageID, &packageName, &packageRemaining, &intentID, &b.Status, &b.Note, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Payment.Method = b.PaymentMethod
	if packageID != nil {
		b.PackageInfo = &model.PackageInfo{PackageID: *packageID}
		if packageName != nil {
			b.PackageInfo.PackageName = *packageName
		}
		if packageRemaining != nil {
			b.PackageInfo.ClassesRemaining = *packageRemaining
		}
	}
	if intentID != nil {
		b.PaymentIntentID = *intentID
	}

	return &b, nil
}

// lockSlot serializes writers of one (class, date, time) slot for the duration
// of the transaction.
func lockSlot(ctx context.Context, tx pgx.Tx, className, date, timeSlot string) error {
	key := className + "|" + date + "|" + timeSlot
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock slot: %w", err)
	}
	return nil
}

func countConfirmedTx(ctx context.Context, tx pgx.Tx, className, date, timeSlot string) (int, error) {
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE class_name = $1 AND class_date = $2 AND class_time = $3 AND status = $4`,
		className, date, timeSlot, string(model.BookingStatusConfirmed),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

// debitCredit re-validates the package usability predicate and consumes one
// credit. classes_remaining + classes_used stays equal to classes.
func debitCredit(p *model.Package, now time.Time) error {
	if !p.Usable(now) {
		return ErrPackageUnavailable
	}

	p.ClassesRemaining--
	p.ClassesUsed++
	p.LastUsed = &now
	return nil
}

// consumeCreditTx re-validates the package usability predicate under a row
// lock and debits one credit. Both the standalone ledger call and the
// booking-creation transaction go through here.
func consumeCreditTx(ctx context.Context, tx pgx.Tx, packageID, email string, now time.Time) (*model.Package, error) {
	row := tx.QueryRow(ctx,
		`SELECT id, package_name, classes, classes_remaining, classes_used,
		        customer_name, customer_email, customer_phone, user_id,
		        payment_method, payment_amount, payment_currency, card_last4, payment_status,
		        status, created_at, expires_at, last_used
		 FROM packages
		 WHERE id = $1 AND lower(customer_email) = lower($2)
		 FOR UPDATE`,
		packageID, email,
	)

	var (
		p      model.Package
		userID *string
	)
	err := row.Scan(
		&p.ID, &p.PackageName, &p.Classes, &p.ClassesRemaining, &p.ClassesUsed,
		&p.Customer.FullName, &p.Customer.Email, &p.Customer.Phone, &userID,
		&p.Payment.Method, &p.Payment.AmountCents, &p.Payment.Currency, &p.Payment.CardLast4, &p.Payment.Status,
		&p.Status, &p.CreatedAt, &p.ExpiresAt, &p.LastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageUnavailable
		}
		return nil, fmt.Errorf("select package: %w", err)
	}
	if userID != nil {
		p.UserID = *userID
	}

	if err := debitCredit(&p, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE packages SET classes_remaining = $2, classes_used = $3, last_used = $4 WHERE id = $1`,
		p.ID, p.ClassesRemaining, p.ClassesUsed, now,
	)
	if err != nil {
		return nil, fmt.Errorf("debit package: %w", err)
	}

	return &p, nil
}

// CreateBooking persists a booking. When the booking names a slot, the slot is
// locked and recounted inside the transaction so the seat limit holds under
// concurrency. When debitPackageID is set, one credit is consumed in the same
// transaction; the booking insert failing rolls the debit back.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b *model.Booking, debitPackageID string) (*model.Package, error) {
	var pkg *model.Package

	err := r.withRetry(ctx, func() error {
		pkg = nil

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		if b.ClassName != "" && b.Date != "" && b.Time != "" {
			if err := lockSlot(ctx, tx, b.ClassName, b.Date, b.Time); err != nil {
				return err
			}

			count, err := countConfirmedTx(ctx, tx, b.ClassName, b.Date, b.Time)
			if err != nil {
				return err
			}
			if count >= MaxBookingsPerClass {
				return ErrClassFull
			}
		}

		if debitPackageID != "" {
			pkg, err = consumeCreditTx(ctx, tx, debitPackageID, b.Customer.Email, time.Now())
			if err != nil {
				return err
			}
			b.PackageInfo = &model.PackageInfo{
				PackageID:        pkg.ID,
				PackageName:      pkg.PackageName,
				ClassesRemaining: pkg.ClassesRemaining,
			}
		}

		var packageID, packageName *string
		var packageRemaining *int
		if b.PackageInfo != nil {
			packageID = &b.PackageInfo.PackageID
			packageName = &b.PackageInfo.PackageName
			packageRemaining = &b.PackageInfo.ClassesRemaining
		}
		var intentID *string
		if b.PaymentIntentID != "" {
			intentID = &b.PaymentIntentID
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bookings (id, class_name, teacher_name, class_date, class_time, formatted_date,
			                       customer_name, customer_email, customer_phone,
			                       payment_method, payment_amount, payment_currency, card_last4, payment_status,
			                       package_id, package_name, package_classes_remaining, payment_intent_id,
			                       status, note, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
			b.ID, b.ClassName, b.TeacherName, b.Date, b.Time, b.FormattedDate,
			b.Customer.FullName, b.Customer.Email, b.Customer.Phone,
			string(b.PaymentMethod), b.Payment.AmountCents, b.Payment.Currency, b.Payment.CardLast4, b.Payment.Status,
			packageID, packageName, packageRemaining, intentID,
			string(b.Status), b.Note, b.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return pkg, nil
}

// CountConfirmedBookings returns how many confirmed bookings exist for the slot.
func (r *PostgresRepository) CountConfirmedBookings(ctx context.Context, className, date, timeSlot string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE class_name = $1 AND class_date = $2 AND class_time = $3 AND status = $4`,
		className, date, timeSlot, string(model.BookingStatusConfirmed),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return count, nil
}

// GetBookings returns every booking, newest first.
func (r *PostgresRepository) GetBookings(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// GetBookingsByEmail returns the customer's confirmed bookings sorted by
// scheduled date and time, soonest first.
func (r *PostgresRepository) GetBookingsByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE lower(customer_email) = lower($1) AND status = $2
		 ORDER BY class_date, class_time`,
		email, string(model.BookingStatusConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("select user bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	var res []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		res = append(res, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetBookingByID returns one booking.
func (r *PostgresRepository) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return b, nil
}

// RescheduleBooking moves a booking to a new slot, re-checking the target
// slot's capacity under the slot lock. Customer and payment fields are untouched.
func (r *PostgresRepository) RescheduleBooking(ctx context.Context, id, newDate, newTime, formattedDate string) (*model.Booking, error) {
	var updated *model.Booking

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var className string
		err = tx.QueryRow(ctx, `SELECT class_name FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&className)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("select booking: %w", err)
		}

		if err := lockSlot(ctx, tx, className, newDate, newTime); err != nil {
			return err
		}

		count, err := countConfirmedTx(ctx, tx, className, newDate, newTime)
		if err != nil {
			return err
		}
		if count >= MaxBookingsPerClass {
			return ErrClassFull
		}

		row := tx.QueryRow(ctx,
			`UPDATE bookings SET class_date = $2, class_time = $3, formatted_date = $4
			 WHERE id = $1
			 RETURNING `+bookingColumns,
			id, newDate, newTime, formattedDate,
		)
		updated, err = scanBooking(row)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// UpdateBookingPaymentStatus flips the payment and lifecycle status of the
// booking holding the given gateway correlation id. Returns false when no
// booking references the intent.
func (r *PostgresRepository) UpdateBookingPaymentStatus(ctx context.Context, paymentIntentID, paymentStatus string, status model.BookingStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET payment_status = $2, status = $3 WHERE payment_intent_id = $1`,
		paymentIntentID, paymentStatus, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("update booking payment status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const packageColumns = `id, package_name, classes, classes_remaining, classes_used,
	customer_name, customer_email, customer_phone, user_id,
	payment_method, payment_amount, payment_currency, card_last4, payment_status,
	status, created_at, expires_at, last_used`

func scanPackage(row pgx.Row) (*model.Package, error) {
	var (
		p      model.Package
		userID *string
	)
	err := row.Scan(
		&p.ID, &p.PackageName, &p.Classes, &p.ClassesRemaining, &p.ClassesUsed,
		&p.Customer.FullName, &p.Customer.Email, &p.Customer.Phone, &userID,
		&p.Payment.Method, &p.Payment.AmountCents, &p.Payment.Currency, &p.Payment.CardLast4, &p.Payment.Status,
		&p.Status, &p.CreatedAt, &p.ExpiresAt, &p.LastUsed,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		p.UserID = *userID
	}
	return &p, nil
}

// CreatePackage persists a package purchase with its full credit.
func (r *PostgresRepository) CreatePackage(ctx context.Context, p *model.Package) error {
	var userID *string
	if p.UserID != "" {
		userID = &p.UserID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO packages (id, package_name, classes, classes_remaining, classes_used,
		                       customer_name, customer_email, customer_phone, user_id,
		                       payment_method, payment_amount, payment_currency, card_last4, payment_status,
		                       status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.PackageName, p.Classes, p.ClassesRemaining, p.ClassesUsed,
		p.Customer.FullName, p.Customer.Email, p.Customer.Phone, userID,
		string(p.Payment.Method), p.Payment.AmountCents, p.Payment.Currency, p.Payment.CardLast4, p.Payment.Status,
		string(p.Status), p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// GetPackages returns every package purchase, newest first.
func (r *PostgresRepository) GetPackages(ctx context.Context) ([]model.Package, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+packageColumns+` FROM packages ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

// GetActivePackagesByEmail returns the customer's usable packages: confirmed,
// with credit remaining and not expired.
func (r *PostgresRepository) GetActivePackagesByEmail(ctx context.Context, email string) ([]model.Package, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+packageColumns+` FROM packages
		 WHERE lower(customer_email) = lower($1)
		   AND status = $2
		   AND classes_remaining > 0
		   AND (expires_at IS NULL OR expires_at > now())
		 ORDER BY created_at`,
		email, string(model.BookingStatusConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("select active packages: %w", err)
	}
	defer rows.Close()

	return collectPackages(rows)
}

func collectPackages(rows pgx.Rows) ([]model.Package, error) {
	var res []model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ConsumePackageCredit debits one credit from the package if it is usable,
// serialized by a row lock.
func (r *PostgresRepository) ConsumePackageCredit(ctx context.Context, packageID, email string) (*model.Package, error) {
	var pkg *model.Package

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		pkg, err = consumeCreditTx(ctx, tx, packageID, email, time.Now())
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	return pkg, nil
}

// SaveResetToken stores a reset token, invalidating any prior token for the
// same email and audience.
func (r *PostgresRepository) SaveResetToken(ctx context.Context, email, token string, audience model.TokenAudience, expiresAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM reset_tokens WHERE email = $1 AND audience = $2`,
		email, string(audience),
	); err != nil {
		return fmt.Errorf("delete prior tokens: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO reset_tokens (token, email, audience, expires_at) VALUES ($1, $2, $3, $4)`,
		token, email, string(audience), expiresAt,
	); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}

	return tx.Commit(ctx)
}

// ConsumeResetToken deletes the token and returns its email. The token is
// single-use: it is removed even when it turns out to be expired, and an
// expired token is indistinguishable from one that never existed.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, token string, audience model.TokenAudience) (string, error) {
	var (
		email     string
		expiresAt time.Time
	)
	err := r.pool.QueryRow(ctx,
		`DELETE FROM reset_tokens WHERE token = $1 AND audience = $2 RETURNING email, expires_at`,
		token, string(audience),
	).Scan(&email, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("consume token: %w", err)
	}

	if !expiresAt.After(time.Now()) {
		return "", ErrTokenInvalid
	}

	return email, nil
}
