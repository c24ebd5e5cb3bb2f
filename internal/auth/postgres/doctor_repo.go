// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

// Package postgres provides PostgreSQL-backed auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/hudumia/hudumia/internal/auth"
)

// poolIface abstracts pgxpool.Pool so repository tests can run against
// pgxmock without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// doctorColumns is the column list shared by all doctor SELECTs.
const doctorColumns = `id, first_name, second_name, username, email, phone_number,
	       password_hash, totp_secret, reset_token_hash, reset_token_expires_at,
	       failed_attempts, locked_until, created_at, updated_at`

// DoctorRepository implements auth.DoctorRepository using PostgreSQL.
type DoctorRepository struct {
	pool poolIface
}

// NewDoctorRepository creates a new DoctorRepository.
func NewDoctorRepository(pool poolIface) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

// Create stores a new doctor.
// Unique-constraint violations on email, username, or phone number are
// mapped to AUTH_CONFLICT errors naming the conflicting field; the
// constraints are the final arbiter of identity uniqueness.
func (r *DoctorRepository) Create(ctx context.Context, doctor *auth.Doctor) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (
			id, first_name, second_name, username, email, phone_number,
			password_hash, totp_secret, reset_token_hash, reset_token_expires_at,
			failed_attempts, locked_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		doctor.ID.String(),
		doctor.FirstName,
		doctor.SecondName,
		doctor.Username,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.PasswordHash,
		doctor.TOTPSecret,
		doctor.ResetTokenHash,
		doctor.ResetTokenExpiresAt,
		doctor.FailedAttempts,
		doctor.LockedUntil,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return oops.Code("AUTH_CONFLICT").
				With("field", field).
				Errorf("a doctor with this %s already exists", field)
		}
		return oops.Code("DOCTOR_CREATE_FAILED").
			With("operation", "insert doctor").
			With("username", doctor.Username).
			Wrap(err)
	}
	return nil
}

// conflictField maps a unique violation to the human-readable name of
// the conflicting identity field.
func conflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}
	switch pgErr.ConstraintName {
	case "doctors_email_key":
		return "email", true
	case "doctors_phone_number_key":
		return "phone number", true
	case "doctors_username_key":
		return "username", true
	default:
		return "identity", true
	}
}

// GetByID retrieves a doctor by ID.
func (r *DoctorRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id.String())

	doctor, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOCTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOCTOR_GET_BY_ID_FAILED").
			With("operation", "get doctor by id").
			With("id", id.String()).
			Wrap(err)
	}
	return doctor, nil
}

// GetByEmail retrieves a doctor by email (case-insensitive).
func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*auth.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE LOWER(email) = LOWER($1)
	`, email)

	doctor, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOCTOR_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOCTOR_GET_BY_EMAIL_FAILED").
			With("operation", "get doctor by email").
			Wrap(err)
	}
	return doctor, nil
}

// GetByUsername retrieves a doctor by username (case-insensitive).
func (r *DoctorRepository) GetByUsername(ctx context.Context, username string) (*auth.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE LOWER(username) = LOWER($1)
	`, username)

	doctor, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOCTOR_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOCTOR_GET_BY_USERNAME_FAILED").
			With("operation", "get doctor by username").
			With("username", username).
			Wrap(err)
	}
	return doctor, nil
}

// GetByPhone retrieves a doctor by phone number.
func (r *DoctorRepository) GetByPhone(ctx context.Context, phone string) (*auth.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE phone_number = $1
	`, phone)

	doctor, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOCTOR_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOCTOR_GET_BY_PHONE_FAILED").
			With("operation", "get doctor by phone").
			Wrap(err)
	}
	return doctor, nil
}

// GetByIdentifier retrieves a doctor by email or username (case-insensitive).
func (r *DoctorRepository) GetByIdentifier(ctx context.Context, identifier string) (*auth.Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1)
	`, identifier)

	doctor, err := scanDoctor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("DOCTOR_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("DOCTOR_GET_BY_IDENTIFIER_FAILED").
			With("operation", "get doctor by identifier").
			Wrap(err)
	}
	return doctor, nil
}

// Update updates an existing doctor.
func (r *DoctorRepository) Update(ctx context.Context, doctor *auth.Doctor) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE doctors SET
			first_name = $2,
			second_name = $3,
			username = $4,
			email = $5,
			phone_number = $6,
			password_hash = $7,
			totp_secret = $8,
			reset_token_hash = $9,
			reset_token_expires_at = $10,
			failed_attempts = $11,
			locked_until = $12,
			updated_at = $13
		WHERE id = $1
	`,
		doctor.ID.String(),
		doctor.FirstName,
		doctor.SecondName,
		doctor.Username,
		doctor.Email,
		doctor.PhoneNumber,
		doctor.PasswordHash,
		doctor.TOTPSecret,
		doctor.ResetTokenHash,
		doctor.ResetTokenExpiresAt,
		doctor.FailedAttempts,
		doctor.LockedUntil,
		doctor.UpdatedAt,
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return oops.Code("AUTH_CONFLICT").
				With("field", field).
				Errorf("a doctor with this %s already exists", field)
		}
		return oops.Code("DOCTOR_UPDATE_FAILED").
			With("operation", "update doctor").
			With("id", doctor.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOCTOR_NOT_FOUND").
			With("id", doctor.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateTOTPSecret replaces the second-factor secret for a doctor.
func (r *DoctorRepository) UpdateTOTPSecret(ctx context.Context, id ulid.ULID, secret string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE doctors SET totp_secret = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), secret, time.Now())
	if err != nil {
		return oops.Code("DOCTOR_UPDATE_TOTP_FAILED").
			With("operation", "update totp secret").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOCTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateResetToken stores a reset token hash and its expiry.
func (r *DoctorRepository) UpdateResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE doctors SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), tokenHash, expiresAt, time.Now())
	if err != nil {
		return oops.Code("DOCTOR_UPDATE_RESET_TOKEN_FAILED").
			With("operation", "update reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOCTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearResetToken removes any stored reset token for a doctor.
func (r *DoctorRepository) ClearResetToken(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE doctors SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $2
		WHERE id = $1
	`, id.String(), time.Now())
	if err != nil {
		return oops.Code("DOCTOR_CLEAR_RESET_TOKEN_FAILED").
			With("operation", "clear reset token").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOCTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword updates only the password hash for a doctor.
func (r *DoctorRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE doctors SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), passwordHash, time.Now())
	if err != nil {
		return oops.Code("DOCTOR_UPDATE_PASSWORD_FAILED").
			With("operation", "update password").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("DOCTOR_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken atomically sets a new password hash and clears the
// reset token for the doctor holding an unexpired token with the given
// hash. The single conditional UPDATE guarantees a token can only be
// spent once even under concurrent reset attempts.
func (r *DoctorRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (ulid.ULID, error) {
	var idStr string
	err := r.pool.QueryRow(ctx, `
		UPDATE doctors SET
			password_hash = $2,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = $3
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $3
		RETURNING id
	`, tokenHash, passwordHash, time.Now()).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.Code("RESET_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("DOCTOR_CONSUME_RESET_TOKEN_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("DOCTOR_INVALID_ID").
			With("operation", "parse doctor id").
			With("id", idStr).
			Wrap(err)
	}
	return id, nil
}

// scanDoctor scans a single row into a Doctor.
// Callers are responsible for handling pgx.ErrNoRows.
func scanDoctor(row pgx.Row) (*auth.Doctor, error) {
	var (
		idStr               string
		firstName           string
		secondName          string
		username            string
		email               string
		phoneNumber         string
		passwordHash        string
		totpSecret          string
		resetTokenHash      *string
		resetTokenExpiresAt *time.Time
		failedAttempts      int
		lockedUntil         *time.Time
		createdAt           time.Time
		updatedAt           time.Time
	)

	err := row.Scan(
		&idStr,
		&firstName,
		&secondName,
		&username,
		&email,
		&phoneNumber,
		&passwordHash,
		&totpSecret,
		&resetTokenHash,
		&resetTokenExpiresAt,
		&failedAttempts,
		&lockedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("DOCTOR_SCAN_FAILED").
			With("operation", "scan doctor").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("DOCTOR_INVALID_ID").
			With("operation", "parse doctor id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Doctor{
		ID:                  id,
		FirstName:           firstName,
		SecondName:          secondName,
		Username:            username,
		Email:               email,
		PhoneNumber:         phoneNumber,
		PasswordHash:        passwordHash,
		TOTPSecret:          totpSecret,
		ResetTokenHash:      resetTokenHash,
		ResetTokenExpiresAt: resetTokenExpiresAt,
		FailedAttempts:      failedAttempts,
		LockedUntil:         lockedUntil,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.DoctorRepository = (*DoctorRepository)(nil)
