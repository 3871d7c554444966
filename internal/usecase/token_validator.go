package usecase

import (
	"booking-engine/internal/pkg/jwt"
)

type ServicePrincipal struct {
	Service string
	Scopes  []string
}

func (p ServicePrincipal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenValidator provides service token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (*ServicePrincipal, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (*ServicePrincipal, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Service == "" {
		return nil, jwt.ErrInvalidToken
	}
	return &ServicePrincipal{Service: claims.Service, Scopes: claims.Scopes}, nil
}
