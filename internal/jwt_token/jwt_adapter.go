package jwttoken

import (
	"strings"

	authmw "civicproof/pkg/platform/middleware/auth"
)

// MiddlewareValidator lets the auth middleware validate worker tokens without
// importing this package.
type MiddlewareValidator struct {
	service *JWTService
}

func NewMiddlewareValidator(service *JWTService) *MiddlewareValidator {
	return &MiddlewareValidator{service: service}
}

// ValidateToken returns the principal with its email normalised, matching how
// the worker directory and duplicate guard key submitters.
func (v *MiddlewareValidator) ValidateToken(raw string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{
		WorkerID: claims.WorkerID,
		Email:    strings.ToLower(strings.TrimSpace(claims.Email)),
		Role:     claims.Role,
	}, nil
}
