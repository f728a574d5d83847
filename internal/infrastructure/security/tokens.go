package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken covers malformed, expired, mis-signed and foreign tokens.
var ErrInvalidToken = errors.New("invalid session token")

const sessionClaim = "sid"

// TokenIssuer signs and checks the tokens that grant access to one editor
// session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with HS256. An empty secret is
// replaced with a random one, so tokens do not survive a restart.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		generated, err := GenerateSecureKey(64)
		if err != nil {
			return nil, err
		}
		secret = generated
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for sessionID and its expiry.
func (ti *TokenIssuer) Issue(sessionID string) (string, time.Time, error) {
	now := ti.now().UTC()
	expires := now.Add(ti.ttl)

	claims := jwt.MapClaims{
		sessionClaim: sessionID,
		"iat":        now.Unix(),
		"exp":        expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expires, nil
}

// SessionID validates tokenString and returns the session it grants.
func (ti *TokenIssuer) SessionID(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	sid, ok := claims[sessionClaim].(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("%w: missing session claim", ErrInvalidToken)
	}
	return sid, nil
}

// Verify checks that tokenString grants access to sessionID.
func (ti *TokenIssuer) Verify(tokenString, sessionID string) error {
	sid, err := ti.SessionID(tokenString)
	if err != nil {
		return err
	}
	if sid != sessionID {
		return fmt.Errorf("%w: token is for another session", ErrInvalidToken)
	}
	return nil
}
