package jwttoken

import (
	authmw "steeple/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims converts token claims into the middleware's view.
func ToMiddlewareClaims(claims *Claims) (*authmw.Claims, error) {
	actor, err := claims.Actor()
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		Actor:      actor,
		TerminalID: claims.TerminalID,
	}, nil
}

// ServiceAdapter bridges the token service to the auth middleware contract.
type ServiceAdapter struct {
	service *Service
}

func NewServiceAdapter(service *Service) *ServiceAdapter {
	return &ServiceAdapter{service: service}
}

func (a *ServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
