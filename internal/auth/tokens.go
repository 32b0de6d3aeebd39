package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/findshroom/findshroom-server/internal/domain"
	"github.com/findshroom/findshroom-server/internal/id"
)

const (
	tokenIssuer   = "findshroom-server"
	tokenAudience = "findshroom-app"
)

// ErrTokenExpired is returned for an authentic token whose expiry has passed.
var ErrTokenExpired = errors.New("token expired")

// TokenService handles PASETO token generation and verification.
// A token is only honored while its session exists; revocation happens by
// deleting the session, not by tracking tokens.
type TokenService struct {
	symmetricKey        paseto.V4SymmetricKey
	accessTokenDuration time.Duration
	now                 func() time.Time
}

// NewTokenService creates a token service from a 32-byte symmetric key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if accessDuration <= 0 {
		return nil, fmt.Errorf("access token duration must be positive")
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey:        symmetricKey,
		accessTokenDuration: accessDuration,
		now:                 time.Now,
	}, nil
}

// GenerateAccessToken creates a v4.local access token bound to a session.
// It returns the token and its expiry.
func (s *TokenService) GenerateAccessToken(user *domain.User, sessionID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.accessTokenDuration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(strconv.FormatInt(user.ID, 10))
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("sid", sessionID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("is_admin", user.IsAdmin)

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// VerifyAccessToken decrypts a token and checks issuer, audience and
// validity window. Expiry is checked after decryption so that an expired
// token is reported as ErrTokenExpired rather than as invalid.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	now := s.now()
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if now.After(exp) {
		return nil, ErrTokenExpired
	}
	if nbf, err := token.GetNotBefore(); err != nil || now.Before(nbf) {
		return nil, fmt.Errorf("invalid token: not valid yet")
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	if claims.UserID == 0 || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token: missing user or session")
	}

	return &claims, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *TokenService) AccessTokenDuration() time.Duration {
	return s.accessTokenDuration
}
