// Package jwttoken issues and validates the bearer tokens staff terminals
// present. Token validity gates access to operations; it never feeds the
// per-child pickup authorization decision.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
)

// Claims are the JWT claims for staff access tokens.
type Claims struct {
	ActorID    string   `json:"actor_id"`
	ActorName  string   `json:"actor_name"`
	Roles      []string `json:"roles"`
	TerminalID string   `json:"terminal_id,omitempty"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

// New constructs a Service around an HS256 signing key.
func New(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken signs a token for a staff actor on a terminal.
func (s *Service) GenerateAccessToken(actor domain.Actor, terminalID string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID:    actor.ID.String(),
		ActorName:  actor.Name,
		Roles:      actor.Roles,
		TerminalID: terminalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Actor converts validated claims into the explicit actor identity services
// take as an argument.
func (c *Claims) Actor() (domain.Actor, error) {
	id, err := domain.ParseActorID(c.ActorID)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "invalid actor identity")
	}
	return domain.Actor{ID: id, Name: c.ActorName, Roles: c.Roles}, nil
}
