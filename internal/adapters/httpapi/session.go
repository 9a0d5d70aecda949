package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionManager issues and validates the opaque per-browser session id,
// carried as an HS256-signed token in a cookie. Losing the cookie simply
// starts a new, empty history.
type SessionManager struct {
	cookieName string
	secret     []byte
	ttl        time.Duration
	logger     *zap.Logger
}

// NewSessionManager creates a new session manager. With an empty secret a
// random one is generated, which invalidates all sessions on restart.
func NewSessionManager(cookieName string, secret string, ttl time.Duration, logger *zap.Logger) *SessionManager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// crypto/rand failing means the platform is broken; fall
			// back to a fixed marker rather than panicking.
			key = []byte("insecure-dev-session-secret")
		}
		logger.Warn("No session secret configured, generated a random one",
			zap.String("hint", "set session.secret to keep sessions across restarts"),
			zap.String("key_id", hex.EncodeToString(key[:4])))
	}

	return &SessionManager{
		cookieName: cookieName,
		secret:     key,
		ttl:        ttl,
		logger:     logger,
	}
}

// UserID returns the session id for the request, issuing a fresh cookie
// when none is present or the presented token does not validate.
func (m *SessionManager) UserID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if id, err := m.parse(cookie.Value); err == nil {
			return id
		} else {
			m.logger.Debug("Rejected session cookie, issuing a new session", zap.Error(err))
		}
	}

	id := uuid.NewString()
	if err := m.issue(w, id); err != nil {
		m.logger.Error("Failed to issue session cookie", zap.Error(err))
	}
	return id
}

func (m *SessionManager) parse(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token")
	}
	return claims.Subject, nil
}

func (m *SessionManager) issue(w http.ResponseWriter, id string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
