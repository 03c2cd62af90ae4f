package utils

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims identify a storefront session. UserID is zero for guests.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens and keeps a blacklist of
// revoked ones until they expire.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	blacklistMutex    sync.Mutex
	blacklistedTokens map[string]time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret:            []byte(secret),
		ttl:               ttl,
		now:               time.Now,
		blacklistedTokens: make(map[string]time.Time),
	}
}

func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

func (tm *TokenManager) GenerateToken(sessionID string, userID uint, role string) (string, error) {
	now := tm.now()
	claims := &SessionClaims{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "RestaurantStorefront",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (tm *TokenManager) ParseToken(tokenString string) (*SessionClaims, error) {
	if tm.IsTokenBlacklisted(tokenString) {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(tm.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BlacklistToken revokes a token for the rest of its lifetime.
func (tm *TokenManager) BlacklistToken(tokenString string) {
	tm.blacklistMutex.Lock()
	defer tm.blacklistMutex.Unlock()
	tm.blacklistedTokens[tokenString] = tm.now().Add(tm.ttl)
}

func (tm *TokenManager) IsTokenBlacklisted(tokenString string) bool {
	tm.blacklistMutex.Lock()
	defer tm.blacklistMutex.Unlock()

	expiry, exists := tm.blacklistedTokens[tokenString]
	if !exists {
		return false
	}
	if tm.now().Before(expiry) {
		return true
	}
	delete(tm.blacklistedTokens, tokenString)
	return false
}

// CleanupBlacklist drops revoked tokens that have expired anyway.
func (tm *TokenManager) CleanupBlacklist() int {
	tm.blacklistMutex.Lock()
	defer tm.blacklistMutex.Unlock()

	now := tm.now()
	removed := 0
	for token, expiry := range tm.blacklistedTokens {
		if now.After(expiry) {
			delete(tm.blacklistedTokens, token)
			removed++
		}
	}
	return removed
}
