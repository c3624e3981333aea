package jwttoken

import (
	"impact/internal/platform/middleware"
)

// ToMiddlewareClaims converts token claims to the shape the auth middleware
// stores on the request context.
func ToMiddlewareClaims(claims *Claims) *middleware.JWTClaims {
	return &middleware.JWTClaims{
		MemberCardID: claims.MemberCardID,
		Role:         claims.Role,
	}
}

// JWTServiceAdapter bridges the JWT service to the middleware validator
// interface.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
