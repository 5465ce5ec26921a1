package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures and unexpected algorithms.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the identity carried by a session token.
type Claims struct {
	AccountID uint   `json:"account_id,omitempty"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 session tokens with a server-held secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager creates a TokenManager. Tokens it issues expire after ttl.
func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// Issue signs a token carrying the identity fields of claims. Expiry, issue
// time, token id, issuer and subject are filled in here.
func (m *TokenManager) Issue(claims Claims) (string, error) {
	now := jwt.TimeFunc()
	claims.StandardClaims = jwt.StandardClaims{
		Id:        uuid.NewString(),
		Issuer:    m.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}
	if claims.AccountID != 0 {
		claims.Subject = strconv.FormatUint(uint64(claims.AccountID), 10)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its claims. The error wraps
// ErrTokenExpired or ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors == jwt.ValidationErrorExpired {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenInvalid)
	}
	return claims, nil
}
