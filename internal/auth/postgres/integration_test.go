// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hudumia Contributors

//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hudumia/hudumia/internal/auth"
	"github.com/hudumia/hudumia/internal/auth/postgres"
	"github.com/hudumia/hudumia/internal/store"
	"github.com/hudumia/hudumia/pkg/errutil"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("hudumia_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	if err := migrator.Up(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	if err := migrator.Close(); err != nil {
		log.Fatalf("failed to close migrator: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := container.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}
	os.Exit(code)
}

// createTestDoctor inserts a doctor and removes it when the test ends.
func createTestDoctor(t *testing.T, repo *postgres.DoctorRepository, suffix string) *auth.Doctor {
	t.Helper()
	ctx := context.Background()

	doctor, err := auth.NewDoctor(
		"Jane", "Doe",
		fmt.Sprintf("drjane%s", suffix),
		fmt.Sprintf("jane%s@example.com", suffix),
		fmt.Sprintf("+2547%s", suffix),
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
	)
	require.NoError(t, err)
	doctor.TOTPSecret = "JBSWY3DPEHPK3PXP"

	require.NoError(t, repo.Create(ctx, doctor))
	t.Cleanup(func() {
		_, _ = testPool.Exec(context.Background(), "DELETE FROM doctors WHERE id = $1", doctor.ID.String())
	})
	return doctor
}

func TestIntegrationDoctorLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewDoctorRepository(testPool)

	t.Run("create and fetch by each identity", func(t *testing.T) {
		doctor := createTestDoctor(t, repo, "00000001")

		byID, err := repo.GetByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, doctor.Email, byID.Email)

		byEmail, err := repo.GetByEmail(ctx, "JANE00000001@EXAMPLE.COM")
		require.NoError(t, err)
		assert.Equal(t, doctor.ID, byEmail.ID)

		byUsername, err := repo.GetByUsername(ctx, "DRJANE00000001")
		require.NoError(t, err)
		assert.Equal(t, doctor.ID, byUsername.ID)

		byPhone, err := repo.GetByPhone(ctx, doctor.PhoneNumber)
		require.NoError(t, err)
		assert.Equal(t, doctor.ID, byPhone.ID)

		byIdentifier, err := repo.GetByIdentifier(ctx, doctor.Username)
		require.NoError(t, err)
		assert.Equal(t, doctor.ID, byIdentifier.ID)
	})

	t.Run("unique constraints are the final arbiter", func(t *testing.T) {
		doctor := createTestDoctor(t, repo, "00000002")

		dup, err := auth.NewDoctor("John", "Roe", "drjohn2", doctor.Email, "+254799999902", "$argon2id$other")
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_CONFLICT")
		errutil.AssertErrorContext(t, err, "field", "email")
	})

	t.Run("reset token consume is single use", func(t *testing.T) {
		doctor := createTestDoctor(t, repo, "00000003")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.UpdateResetToken(ctx, doctor.ID, hash, time.Now().Add(time.Hour)))

		id, err := repo.ConsumeResetToken(ctx, hash, "$argon2id$newhash")
		require.NoError(t, err)
		assert.Equal(t, doctor.ID, id)

		// Second consume of the same token must fail.
		_, err = repo.ConsumeResetToken(ctx, hash, "$argon2id$another")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		after, err := repo.GetByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$newhash", after.PasswordHash)
		assert.Nil(t, after.ResetTokenHash)
	})

	t.Run("expired reset token cannot be consumed", func(t *testing.T) {
		doctor := createTestDoctor(t, repo, "00000004")

		_, hash, err := auth.GenerateResetToken()
		require.NoError(t, err)
		require.NoError(t, repo.UpdateResetToken(ctx, doctor.ID, hash, time.Now().Add(-time.Minute)))

		_, err = repo.ConsumeResetToken(ctx, hash, "$argon2id$newhash")
		assert.ErrorIs(t, err, auth.ErrNotFound)

		// Stored password is untouched.
		after, err := repo.GetByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "$argon2id$newhash", after.PasswordHash)
	})

	t.Run("rotating totp secret persists", func(t *testing.T) {
		doctor := createTestDoctor(t, repo, "00000005")

		require.NoError(t, repo.UpdateTOTPSecret(ctx, doctor.ID, "ROTATEDSECRET"))

		after, err := repo.GetByID(ctx, doctor.ID)
		require.NoError(t, err)
		assert.Equal(t, "ROTATEDSECRET", after.TOTPSecret)
	})
}
