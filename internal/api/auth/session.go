package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/slapshotlabs/rinkside/internal/store"
)

const (
	sessionCookieName = "rinkside_session"
	sessionTTL        = 8 * time.Hour
)

var errSessionConfigMissing = errors.New("session configuration missing")

// SessionStore persists issued session ids so logout can revoke a token
// before it expires.
type SessionStore interface {
	CreateSession(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	GetSession(ctx context.Context, tokenID string) (store.Session, error)
	DeleteSession(ctx context.Context, tokenID string) error
}

// SessionUser is the identity carried by a verified session token. Role state
// is not stored in the token; it is resolved fresh on every request.
type SessionUser struct {
	ID      string
	Email   string
	TokenID string
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens delivered as an
// HttpOnly cookie, with a jti row in the sessions table for revocation.
type SessionManager struct {
	secret   []byte
	sessions SessionStore
	secure   bool
}

func NewSessionManager(secret string, sessions SessionStore, secureCookies bool) (*SessionManager, error) {
	if secret == "" {
		return nil, errSessionConfigMissing
	}
	return &SessionManager{
		secret:   []byte(secret),
		sessions: sessions,
		secure:   secureCookies,
	}, nil
}

// Issue creates a session for the user and sets the cookie on w.
func (m *SessionManager) Issue(ctx context.Context, w http.ResponseWriter, userID, email string) error {
	tokenID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(sessionTTL)

	claims := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	if err := m.sessions.CreateSession(ctx, tokenID, userID, expiresAt); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
	})

	return nil
}

// UserFromRequest verifies the session cookie and returns the caller it
// belongs to. A missing, malformed, expired, or revoked session yields
// (nil, nil): the caller is simply unauthenticated.
func (m *SessionManager) UserFromRequest(r *http.Request) (*SessionUser, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		// Tampered or expired token; treat as signed out.
		return nil, nil
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, nil
	}

	session, err := m.sessions.GetSession(r.Context(), claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Revoked by logout or pruned after expiry.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.Subject {
		return nil, nil
	}

	return &SessionUser{
		ID:      claims.Subject,
		Email:   claims.Email,
		TokenID: claims.ID,
	}, nil
}

// Clear revokes the caller's session and expires the cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	if user, err := m.UserFromRequest(r); err == nil && user != nil {
		_ = m.sessions.DeleteSession(r.Context(), user.TokenID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
