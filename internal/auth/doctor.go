// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a permissive shape check; the mail server is the real
// arbiter of deliverability.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Doctor represents a registered doctor account.
type Doctor struct {
	ID                  ulid.ULID
	FirstName           string
	SecondName          string
	Username            string
	Email               string
	PhoneNumber         string
	PasswordHash        string
	TOTPSecret          string
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	FailedAttempts      int
	LockedUntil         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewDoctor creates a Doctor with validated identity fields.
// Email and username are normalized to lower case; storage-level
// unique constraints remain the final arbiter of uniqueness.
func NewDoctor(firstName, secondName, username, email, phoneNumber, passwordHash string) (*Doctor, error) {
	if firstName == "" || secondName == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").Errorf("first and second name are required")
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if phoneNumber == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").Errorf("phone number is required")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").Errorf("password hash is required")
	}

	now := time.Now().UTC()
	return &Doctor{
		ID:           ulid.Make(),
		FirstName:    firstName,
		SecondName:   secondName,
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(email),
		PhoneNumber:  phoneNumber,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked returns true if the doctor is currently locked out.
func (d *Doctor) IsLocked() bool {
	return IsLockedOut(d.LockedUntil)
}

// RecordFailure increments the failure counter and sets lockout if threshold reached.
func (d *Doctor) RecordFailure() {
	d.FailedAttempts++
	d.LockedUntil = ComputeLockoutTime(d.FailedAttempts)
	d.UpdatedAt = time.Now()
}

// RecordSuccess resets failure counter and lockout.
func (d *Doctor) RecordSuccess() {
	d.FailedAttempts = 0
	d.LockedUntil = nil
	d.UpdatedAt = time.Now()
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_INPUT").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail validates the shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("email address is malformed")
	}
	return nil
}

// DoctorRepository manages doctor persistence.
//
// Lookups are case-insensitive on email and username. All Get methods
// wrap ErrNotFound when no row matches.
type DoctorRepository interface {
	// Create stores a new doctor. A unique-constraint violation on
	// email, username, or phone number surfaces as an AUTH_CONFLICT
	// error naming the conflicting field.
	Create(ctx context.Context, doctor *Doctor) error

	// GetByID retrieves a doctor by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Doctor, error)

	// GetByEmail retrieves a doctor by email.
	GetByEmail(ctx context.Context, email string) (*Doctor, error)

	// GetByUsername retrieves a doctor by username.
	GetByUsername(ctx context.Context, username string) (*Doctor, error)

	// GetByPhone retrieves a doctor by phone number.
	GetByPhone(ctx context.Context, phone string) (*Doctor, error)

	// GetByIdentifier retrieves a doctor by email or username.
	GetByIdentifier(ctx context.Context, identifier string) (*Doctor, error)

	// Update updates an existing doctor.
	Update(ctx context.Context, doctor *Doctor) error

	// UpdateTOTPSecret replaces the second-factor secret for a doctor.
	UpdateTOTPSecret(ctx context.Context, id ulid.ULID, secret string) error

	// UpdateResetToken stores a reset token hash and its expiry.
	UpdateResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes any stored reset token for a doctor.
	ClearResetToken(ctx context.Context, id ulid.ULID) error

	// UpdatePassword updates only the password hash for a doctor.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// ConsumeResetToken atomically sets a new password hash and clears
	// the reset token for the doctor holding an unexpired token with
	// the given hash. Wraps ErrNotFound when no such token exists,
	// leaving the stored password untouched.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (ulid.ULID, error)
}
