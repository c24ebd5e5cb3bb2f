// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

// Package auth provides authentication primitives for Hudumia.
//
// # Domain Types
//
// Doctor is the account entity. Create one with NewDoctor, which
// validates the username and normalizes the email; direct struct
// initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types.
//
// # Services
//
// Service coordinates the credential lifecycle: sign-up, two-step
// sign-in (password then TOTP), forgot-password dispatch, and
// token-based password reset. It is created with NewService, which
// validates its dependencies.
//
// Supporting components follow the same accept-interfaces pattern:
//   - PasswordHasher - slow salted password hashing (argon2id)
//   - TOTPIssuer - time-based second-factor secrets and codes
//   - TokenIssuer - signed stateless session tokens
//   - Mailer - outbound message dispatch
package auth
