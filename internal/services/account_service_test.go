package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/monicaSernaS/guarani-host-backend-sub000/internal/db"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/utils"
)

func setupAccountService(t *testing.T) IAccountService {
	db := utils.SetupTestDB(t, "guaranihost_test_accounts", accountsCollection)
	return NewAccountService(db, testConfig())
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := setupAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "Ana", "Ana@Example.COM", "password123", "+595991234567", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", account.Email)
	assert.Equal(t, models.RoleUser, account.Role)
	assert.Equal(t, models.AccountActive, account.Status)
	assert.NotEqual(t, "password123", account.PasswordHash)

	// Case-insensitive login.
	got, err := svc.Authenticate(ctx, "ANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	// Wrong password and unknown account are indistinguishable.
	_, err = svc.Authenticate(ctx, "ana@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc := setupAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "a@example.com", "password123", "", models.RoleUser)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "Ana", "not-an-email", "password123", "", models.RoleUser)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "Ana", "a@example.com", "short", "", models.RoleUser)
	assert.ErrorIs(t, err, ErrValidation)

	// Admin accounts cannot be self-registered.
	_, err = svc.Register(ctx, "Ana", "a@example.com", "password123", "", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := utils.SetupTestDB(t, "guaranihost_test_accounts", accountsCollection)
	require.NoError(t, dbpkg.EnsureIndexes(context.Background(), db))
	svc := NewAccountService(db, testConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "dup@example.com", "password123", "", models.RoleUser)
	require.NoError(t, err)

	// Same email, different case: the stored email is lowercased and the
	// unique index turns the retry into a conflict.
	_, err = svc.Register(ctx, "Other", "DUP@example.com", "password123", "", models.RoleUser)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSuspendedAccountCannotLogIn(t *testing.T) {
	svc := setupAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "Ana", "ana@example.com", "password123", "", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, account.ID, models.AccountSuspended))

	_, err = svc.Authenticate(ctx, "ana@example.com", "password123")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSoftDeletedAccountIsHidden(t *testing.T) {
	svc := setupAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "Ana", "ana@example.com", "password123", "", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, account.ID, models.AccountDeleted))

	_, err = svc.FindByID(ctx, account.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileAllowedFields(t *testing.T) {
	svc := setupAccountService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "Ana", "ana@example.com", "password123", "", models.RoleUser)
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, account.ID, map[string]interface{}{"name": "Ana María", "phone": "+595991111111"})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)

	// Role escalation through the profile path is rejected.
	_, err = svc.UpdateProfile(ctx, account.ID, map[string]interface{}{"role": "admin"})
	assert.ErrorIs(t, err, ErrValidation)
}
