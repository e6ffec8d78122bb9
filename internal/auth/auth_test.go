package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	accountID := primitive.NewObjectID()

	token, err := GenerateJWT(accountID, models.RoleHost, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "secret")
	require.NoError(t, err)

	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, accountID, principal.ID)
	assert.Equal(t, models.RoleHost, principal.Role)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(primitive.NewObjectID(), models.RoleUser, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT(primitive.NewObjectID(), models.RoleUser, "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "secret")
	assert.Error(t, err)
}

func TestPrincipalRejectsUnknownRole(t *testing.T) {
	claims := &Claims{UserID: primitive.NewObjectID().Hex(), Role: "superuser"}
	_, err := claims.Principal()
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
