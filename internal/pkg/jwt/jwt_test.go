//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"booking-engine/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour, "booking-engine")

	t.Run("round trip keeps service and scopes", func(t *testing.T) {
		token, err := svc.GenerateServiceToken("ops-console", jwt.ScopeTicketing)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "ops-console", claims.Service)
		assert.True(t, claims.HasScope(jwt.ScopeTicketing))
		assert.False(t, claims.HasScope(jwt.ScopeQuotes))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := jwt.NewService("secret", -time.Minute, "booking-engine")
		token, err := expired.GenerateServiceToken("ops-console")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := jwt.NewService("other", time.Hour, "booking-engine")
		token, err := other.GenerateServiceToken("ops-console")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := jwt.NewService("secret", time.Hour, "someone-else")
		token, err := other.GenerateServiceToken("ops-console")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
