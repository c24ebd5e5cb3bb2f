// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hudumia/hudumia/internal/auth"
)

func TestCheckFailures(t *testing.T) {
	t.Run("no failures means no delay", func(t *testing.T) {
		result := auth.CheckFailures(0, nil)
		assert.Zero(t, result.Delay)
		assert.False(t, result.IsLockedOut)
	})

	t.Run("delay grows with failures", func(t *testing.T) {
		assert.Equal(t, 1*time.Second, auth.CheckFailures(1, nil).Delay)
		assert.Equal(t, 2*time.Second, auth.CheckFailures(2, nil).Delay)
		assert.Equal(t, 4*time.Second, auth.CheckFailures(3, nil).Delay)
		assert.Equal(t, 32*time.Second, auth.CheckFailures(6, nil).Delay)
	})

	t.Run("lockout at threshold", func(t *testing.T) {
		result := auth.CheckFailures(auth.LockoutThreshold, nil)
		assert.True(t, result.IsLockedOut)
		assert.Equal(t, auth.LockoutDuration, result.LockoutRemaining)
	})

	t.Run("existing lockout takes precedence", func(t *testing.T) {
		until := time.Now().Add(5 * time.Minute)
		result := auth.CheckFailures(2, &until)
		assert.True(t, result.IsLockedOut)
		assert.Greater(t, result.LockoutRemaining, time.Duration(0))
	})

	t.Run("expired lockout is ignored", func(t *testing.T) {
		until := time.Now().Add(-time.Minute)
		result := auth.CheckFailures(2, &until)
		assert.False(t, result.IsLockedOut)
	})
}

func TestComputeLockoutTime(t *testing.T) {
	t.Run("below threshold returns nil", func(t *testing.T) {
		assert.Nil(t, auth.ComputeLockoutTime(auth.LockoutThreshold-1))
	})

	t.Run("at threshold returns future time", func(t *testing.T) {
		lockout := auth.ComputeLockoutTime(auth.LockoutThreshold)
		assert.NotNil(t, lockout)
		assert.True(t, lockout.After(time.Now()))
	})
}
