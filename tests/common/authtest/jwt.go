//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

// GenerateToken mints a service token the router's auth middleware accepts.
func (h *JWTHelper) GenerateToken(t *testing.T, service string, scopes ...string) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, h.cfg.Duration, h.cfg.Issuer).GenerateServiceToken(service, scopes...)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, service string, scopes ...string) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, time.Millisecond, h.cfg.Issuer).GenerateServiceToken(service, scopes...)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}
