// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionTokenExpiry is the fixed lifetime of a session token.
const SessionTokenExpiry = time.Hour

// SessionClaims is the verified identity carried by a session token.
type SessionClaims struct {
	DoctorID ulid.ULID
	Email    string
}

// TokenIssuer issues and verifies signed stateless session tokens.
type TokenIssuer interface {
	// Issue creates a signed token for the doctor, expiring after
	// SessionTokenExpiry.
	Issue(doctorID ulid.ULID, email string) (string, error)

	// Verify validates a token and returns its claims. Expired tokens
	// fail with code AUTH_TOKEN_EXPIRED; any other defect (bad
	// signature, wrong algorithm, malformed claims) fails with
	// AUTH_TOKEN_INVALID.
	Verify(token string) (*SessionClaims, error)
}

// JWTIssuer implements TokenIssuer using HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	now    func() time.Time
}

// jwtClaims is the wire shape of a session token payload.
type jwtClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTIssuer creates a JWTIssuer. now may be nil, defaulting to
// time.Now; tests inject a fixed clock.
func NewJWTIssuer(secret []byte, now func() time.Time) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("session token secret cannot be empty")
	}
	if now == nil {
		now = time.Now
	}
	return &JWTIssuer{secret: secret, now: now}, nil
}

// Issue creates a signed session token for the doctor.
func (i *JWTIssuer) Issue(doctorID ulid.ULID, email string) (string, error) {
	issuedAt := i.now().UTC()
	claims := jwtClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   doctorID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(SessionTokenExpiry)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("operation", "sign session token").
			Wrap(err)
	}
	return signed, nil
}

// Verify validates a session token and returns its claims.
func (i *JWTIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &jwtClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return i.secret, nil },
		// Restricting the accepted algorithms closes the HS256/none
		// and RS256-key-confusion substitution attacks.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("AUTH_TOKEN_EXPIRED").Errorf("session token has expired")
		}
		return nil, oops.Code("AUTH_TOKEN_INVALID").
			With("operation", "parse session token").
			Wrap(err)
	}

	doctorID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").
			With("operation", "parse token subject").
			Wrap(err)
	}

	return &SessionClaims{DoctorID: doctorID, Email: claims.Email}, nil
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)
