package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks a parsed access token and extracts the caller claims.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
}

// Validate enforces algorithm, issuer, audience and time bounds, then requires a
// subject and a known role. Tokens minted before roles existed read as customers.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) (Claims, error) {
	if tok == nil {
		return Claims{}, errors.New("auth: token is nil")
	}
	if algorithm == "" || (v.Algorithm != "" && algorithm != v.Algorithm) {
		return Claims{}, fmt.Errorf("auth: unexpected token algorithm %q", algorithm)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(max(v.ClockSkew, 0)),
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, options...); err != nil {
		return Claims{}, err
	}

	claims := Claims{UserID: tok.Subject(), Role: RoleCustomer}
	if claims.UserID == "" {
		return Claims{}, errors.New("auth: token has no subject")
	}
	if raw, ok := tok.Get(claimEmail); ok {
		claims.Email, _ = raw.(string)
	}
	if raw, ok := tok.Get(claimRole); ok {
		role, _ := raw.(string)
		switch role {
		case RoleCustomer, RoleAdmin:
			claims.Role = role
		default:
			return Claims{}, fmt.Errorf("auth: unknown role %q", role)
		}
	}
	return claims, nil
}
