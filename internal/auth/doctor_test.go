// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumia/hudumia/internal/auth"
	"github.com/hudumia/hudumia/pkg/errutil"
)

func TestNewDoctor(t *testing.T) {
	t.Run("normalizes email and username to lower case", func(t *testing.T) {
		doctor, err := auth.NewDoctor("Jane", "Doe", "DrJane", "Jane@Example.COM", "+254700000001", "$argon2id$x")
		require.NoError(t, err)
		assert.Equal(t, "drjane", doctor.Username)
		assert.Equal(t, "jane@example.com", doctor.Email)
		assert.NotZero(t, doctor.ID)
		assert.False(t, doctor.CreatedAt.IsZero())
	})

	t.Run("requires names", func(t *testing.T) {
		_, err := auth.NewDoctor("", "Doe", "drjane", "jane@example.com", "+254700000001", "$argon2id$x")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
	})

	t.Run("requires phone number", func(t *testing.T) {
		_, err := auth.NewDoctor("Jane", "Doe", "drjane", "jane@example.com", "", "$argon2id$x")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
	})

	t.Run("requires password hash", func(t *testing.T) {
		_, err := auth.NewDoctor("Jane", "Doe", "drjane", "jane@example.com", "+254700000001", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
	})
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "drjane", false},
		{"valid with underscore and digits", "dr_jane_99", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"starts with digit", "9lives", true},
		{"contains hyphen", "dr-jane", true},
		{"too long", "abcdefghijklmnopqrstuvwxyz_abcde", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, auth.ValidateEmail("jane@example.com"))
	assert.Error(t, auth.ValidateEmail(""))
	assert.Error(t, auth.ValidateEmail("not-an-email"))
	assert.Error(t, auth.ValidateEmail("two@@example.com"))
}

func TestDoctorLockout(t *testing.T) {
	doctor, err := auth.NewDoctor("Jane", "Doe", "drjane", "jane@example.com", "+254700000001", "$argon2id$x")
	require.NoError(t, err)

	t.Run("failures accumulate to lockout", func(t *testing.T) {
		for range auth.LockoutThreshold {
			doctor.RecordFailure()
		}
		assert.True(t, doctor.IsLocked())
	})

	t.Run("success clears lockout", func(t *testing.T) {
		doctor.RecordSuccess()
		assert.False(t, doctor.IsLocked())
		assert.Zero(t, doctor.FailedAttempts)
	})
}
