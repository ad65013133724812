package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chetan-code/taskdesk/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "session_token"

// ErrNoSession is returned by Load when the request carries no usable session.
var ErrNoSession = errors.New("no session")

// Session is the authenticated state of one browser client.
type Session struct {
	UserID   uint
	Username string
	TokenID  string
}

// Store tracks issued token ids server side so they can be revoked before they expire.
type Store interface {
	Put(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenID string) error
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	store  Store
	now    func() time.Time
}

// NewManager returns a manager signing tokens with secret. store may be nil,
// in which case a token is valid until it expires.
func NewManager(secret []byte, ttl time.Duration, secure bool, store Store) *Manager {
	return &Manager{
		secret: secret,
		ttl:    ttl,
		secure: secure,
		store:  store,
		now:    time.Now,
	}
}

// Issue signs a new token for user, tracks it and sets the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, user *models.User) (*Session, error) {
	now := m.now()
	expireTime := now.Add(m.ttl)
	tokenID := uuid.NewString()

	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expireTime),
		},
	}

	//create the token using hs256 algo and sign with the secret key
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	if m.store != nil {
		if err := m.store.Put(ctx, tokenID, user.ID, m.ttl); err != nil {
			return nil, fmt.Errorf("track session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expireTime,
		HttpOnly: true, //not visible to JS
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return &Session{UserID: user.ID, Username: user.Username, TokenID: tokenID}, nil
}

// Load returns the session of r, or ErrNoSession when the cookie is missing,
// forged, expired or revoked.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.verify(cookie.Value)
	if err != nil {
		return nil, ErrNoSession
	}

	if m.store != nil {
		ok, err := m.store.Exists(r.Context(), claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !ok {
			return nil, ErrNoSession
		}
	}

	return &Session{UserID: claims.UserID, Username: claims.Username, TokenID: claims.ID}, nil
}

// Clear revokes the session of r, if any, and expires the cookie. It never fails
// from the client's point of view.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	var err error
	if cookie, cerr := r.Cookie(CookieName); cerr == nil && m.store != nil {
		if claims, verr := m.verify(cookie.Value); verr == nil {
			err = m.store.Delete(r.Context(), claims.ID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *Manager) verify(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token")
	}

	return claims, nil
}

// we are doing this to avoid collision with libraries
type contextKey string

const sessionKey contextKey = "session"

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}
