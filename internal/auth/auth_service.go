// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/oops"
)

// Message is an outbound mail message.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer dispatches outbound messages.
type Mailer interface {
	// Send delivers a message. Failures surface with code
	// MAIL_DELIVERY_FAILED.
	Send(ctx context.Context, msg Message) error
}

// Service provides authentication operations.
type Service struct {
	doctors      DoctorRepository
	hasher       PasswordHasher
	secondFactor SecondFactorIssuer
	tokens       TokenIssuer
	mailer       Mailer
	resetBaseURL string
	sleep        func(ctx context.Context, d time.Duration) error
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithSleep replaces the function used to wait out the progressive
// sign-in delay. Tests inject a recorder so they don't actually sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ServiceOption {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// NewService creates a new Service. All dependencies are required.
func NewService(
	doctors DoctorRepository,
	hasher PasswordHasher,
	secondFactor SecondFactorIssuer,
	tokens TokenIssuer,
	mailer Mailer,
	resetBaseURL string,
	opts ...ServiceOption,
) (*Service, error) {
	if doctors == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("doctor repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("password hasher is required")
	}
	if secondFactor == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("second factor issuer is required")
	}
	if tokens == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token issuer is required")
	}
	if mailer == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("mailer is required")
	}
	svc := &Service{
		doctors:      doctors,
		hasher:       hasher,
		secondFactor: secondFactor,
		tokens:       tokens,
		mailer:       mailer,
		resetBaseURL: resetBaseURL,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// sleepContext waits for d unless the context is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dummyPasswordHash is used when a doctor doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// SignUpParams are the fields required to register a doctor.
type SignUpParams struct {
	FirstName   string
	SecondName  string
	Username    string
	Email       string
	PhoneNumber string
	Password    string
}

// SignUpResult is returned after successful registration.
type SignUpResult struct {
	DoctorID string
	Email    string

	// QRDataURI enrolls the doctor's authenticator app with the
	// freshly provisioned second-factor secret.
	QRDataURI string
}

// SignUp registers a new doctor account.
//
// Uniqueness of email, phone number, and username is pre-checked in
// that priority order so the caller learns the highest-priority
// conflict. The pre-check is best effort; the storage layer's unique
// constraints remain the final arbiter, and a constraint violation on
// insert surfaces as the same AUTH_CONFLICT error.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*SignUpResult, error) {
	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	doctor, err := NewDoctor(
		params.FirstName, params.SecondName, params.Username,
		params.Email, params.PhoneNumber, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	if err := s.checkAvailability(ctx, doctor); err != nil {
		return nil, err
	}

	secondFactor, err := s.secondFactor.GenerateSecret(doctor.Username)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "generate second factor secret").
			Wrap(err)
	}
	doctor.TOTPSecret = secondFactor.Secret

	if err := s.doctors.Create(ctx, doctor); err != nil {
		// The repository maps unique violations to AUTH_CONFLICT;
		// pass those through so races lost after the pre-check report
		// the same way.
		if hasCode(err, "AUTH_CONFLICT") {
			return nil, err
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create doctor").
			Wrap(err)
	}

	return &SignUpResult{
		DoctorID:  doctor.ID.String(),
		Email:     doctor.Email,
		QRDataURI: secondFactor.QRDataURI,
	}, nil
}

// checkAvailability reports the highest-priority identity conflict:
// email before phone number before username.
func (s *Service) checkAvailability(ctx context.Context, doctor *Doctor) error {
	checks := []struct {
		field  string
		lookup func(context.Context, string) (*Doctor, error)
		value  string
	}{
		{"email", s.doctors.GetByEmail, doctor.Email},
		{"phone number", s.doctors.GetByPhone, doctor.PhoneNumber},
		{"username", s.doctors.GetByUsername, doctor.Username},
	}

	for _, check := range checks {
		_, err := check.lookup(ctx, check.value)
		if err == nil {
			return oops.Code("AUTH_CONFLICT").
				With("field", check.field).
				Errorf("a doctor with this %s already exists", check.field)
		}
		if !errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_SIGNUP_FAILED").
				With("operation", "check "+check.field+" availability").
				Wrap(err)
		}
	}
	return nil
}

// SignInResult is returned by SignIn.
//
// Exactly one of Token or QRDataURI is set: a sign-in without a
// second-factor code rotates the secret and returns the provisioning
// QR instead of a session token.
type SignInResult struct {
	Token         string
	SetupRequired bool
	QRDataURI     string
}

// SignIn authenticates a doctor by email or username plus password,
// then by TOTP code.
//
// When code is empty the doctor is treated as not yet enrolled: a new
// second-factor secret is provisioned and returned as a QR image, and
// no session token is issued. Unknown identifiers and wrong passwords
// produce the same AUTH_INVALID_CREDENTIALS error, and password
// verification runs against a dummy hash for unknown identifiers to
// keep response times consistent.
//
// Prior failed attempts on the account earn an exponential delay
// before this attempt is answered, and enough of them lock the
// account outright.
func (s *Service) SignIn(ctx context.Context, identifier, password, code string) (*SignInResult, error) {
	doctor, lookupErr := s.doctors.GetByIdentifier(ctx, identifier)

	targetHash := dummyPasswordHash
	doctorExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_SIGNIN_FAILED").
				With("operation", "get doctor by identifier").
				Wrap(lookupErr)
		}
	} else {
		targetHash = doctor.PasswordHash
		doctorExists = true
	}

	// Always verify the password so unknown identifiers take the same
	// time as wrong passwords.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	// Backoff earned by prior failures applies to every attempt on the
	// account, whatever this one turns out to be.
	var limit RateLimitResult
	if doctorExists {
		limit = CheckFailures(doctor.FailedAttempts, doctor.LockedUntil)
		if !limit.IsLockedOut && limit.Delay > 0 {
			if err := s.sleep(ctx, limit.Delay); err != nil {
				return nil, oops.Code("AUTH_SIGNIN_FAILED").
					With("operation", "progressive delay").
					Wrap(err)
			}
		}
	}

	if !doctorExists || !valid {
		if doctorExists {
			doctor.RecordFailure()
			_ = s.doctors.Update(ctx, doctor) //nolint:errcheck // Best effort
		}
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
	}

	// Check lockout AFTER password verification to maintain constant time.
	if limit.IsLockedOut {
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", doctor.LockedUntil).
			Errorf("account is temporarily locked")
	}

	if code == "" {
		return s.provisionSecondFactor(ctx, doctor)
	}

	if !s.secondFactor.VerifyCode(doctor.TOTPSecret, code) {
		// A correct password with a bad code is still a failed attempt,
		// otherwise the six-digit code could be brute-forced without
		// ever tripping the lockout.
		doctor.RecordFailure()
		_ = s.doctors.Update(ctx, doctor) //nolint:errcheck // Best effort
		return nil, oops.Code("AUTH_INVALID_SECOND_FACTOR").Errorf("invalid verification code")
	}

	// The failure counter resets, and legacy hashes (e.g. bcrypt) are
	// upgraded, only once the second factor checks out.
	doctor.RecordSuccess()
	if s.hasher.NeedsUpgrade(doctor.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			doctor.PasswordHash = newHash
		}
	}
	_ = s.doctors.Update(ctx, doctor) //nolint:errcheck // Best effort, sign-in succeeds regardless

	token, err := s.tokens.Issue(doctor.ID, doctor.Email)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	return &SignInResult{Token: token}, nil
}

// provisionSecondFactor rotates the doctor's TOTP secret and returns
// the enrollment QR. The new secret must be persisted before it is
// handed out, otherwise the doctor would enroll a secret the server
// doesn't hold.
func (s *Service) provisionSecondFactor(ctx context.Context, doctor *Doctor) (*SignInResult, error) {
	secondFactor, err := s.secondFactor.GenerateSecret(doctor.Username)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "generate second factor secret").
			Wrap(err)
	}

	if err := s.doctors.UpdateTOTPSecret(ctx, doctor.ID, secondFactor.Secret); err != nil {
		return nil, oops.Code("AUTH_SIGNIN_FAILED").
			With("operation", "store second factor secret").
			With("doctor_id", doctor.ID.String()).
			Wrap(err)
	}

	return &SignInResult{
		SetupRequired: true,
		QRDataURI:     secondFactor.QRDataURI,
	}, nil
}

// ForgotPassword starts a password reset for the given email.
//
// Unknown emails succeed without sending anything so the endpoint
// cannot be used to enumerate accounts. A delivery failure for a known
// email is surfaced; the caller decides how to report it.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	doctor, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get doctor by email").
			Wrap(err)
	}

	token, tokenHash, err := GenerateResetToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate reset token").
			Wrap(err)
	}

	expiresAt := time.Now().UTC().Add(ResetTokenExpiry)
	if err := s.doctors.UpdateResetToken(ctx, doctor.ID, tokenHash, expiresAt); err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "store reset token").
			With("doctor_id", doctor.ID.String()).
			Wrap(err)
	}

	msg := Message{
		To:      doctor.Email,
		Subject: "Reset your Hudumia password",
		Body: fmt.Sprintf(
			"Hello Dr. %s,\n\nA password reset was requested for your account. "+
				"Follow this link within the next hour to choose a new password:\n\n%s/reset-password?token=%s\n\n"+
				"If you did not request this, you can ignore this message.\n",
			doctor.SecondName, s.resetBaseURL, token,
		),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return oops.Code("MAIL_DELIVERY_FAILED").
			With("operation", "send reset email").
			With("doctor_id", doctor.ID.String()).
			Wrap(err)
	}

	return nil
}

// ResetPassword sets a new password for the doctor holding a valid,
// unexpired reset token. The token is single use: consuming it and
// setting the new password happen in one atomic storage operation.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("reset token cannot be empty")
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	tokenHash := hashResetToken(token)
	if _, err := s.doctors.ConsumeResetToken(ctx, tokenHash, passwordHash); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("RESET_TOKEN_INVALID").Errorf("reset token is invalid or expired")
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}

	return nil
}

// Authenticate verifies a session token and confirms the doctor still
// exists, returning the doctor. Used by the HTTP access gate.
func (s *Service) Authenticate(ctx context.Context, token string) (*Doctor, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, oops.Code("AUTH_UNAUTHORIZED").
			With("reason", "invalid token").
			Wrap(err)
	}

	doctor, err := s.doctors.GetByID(ctx, claims.DoctorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNAUTHORIZED").
				With("reason", "invalid doctor").
				Errorf("account no longer exists")
		}
		return nil, oops.Code("AUTH_GATE_FAILED").
			With("operation", "get doctor by id").
			Wrap(err)
	}

	return doctor, nil
}

// hasCode reports whether err carries the given oops error code.
func hasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == code
}
