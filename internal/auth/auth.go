// Package auth implements the shared-password login and the session tokens
// that guard the library API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie set on login.
const CookieName = "auth_token"

const issuer = "bookshelf"

var (
	// ErrInvalidPassword is returned when the supplied password does not match.
	ErrInvalidPassword = errors.New("incorrect password")
	// ErrInvalidToken is returned for missing, malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims is the payload of a session token.
type Claims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// Config configures an Authenticator. Exactly one of PasswordHash or Password is needed;
// PasswordHash wins when both are set.
type Config struct {
	PasswordHash  string
	Password      string
	Secret        string
	TTL           time.Duration
	SecureCookies bool
}

// Authenticator checks the shared password and issues and verifies session tokens.
type Authenticator struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// New creates an Authenticator. A plain Password is hashed once here so it is
// never compared directly.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: JWT secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("auth: session TTL must be positive, got %s", cfg.TTL)
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("auth: invalid password hash: %w", err)
		}
		hash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("auth: APP_PASSWORD or APP_PASSWORD_HASH is required")
	}

	return &Authenticator{
		hash:   hash,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		secure: cfg.SecureCookies,
		now:    time.Now,
	}, nil
}

// Login checks password and returns a signed session token.
func (a *Authenticator) Login(password string) (string, *Claims, error) {
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", nil, ErrInvalidPassword
	}
	return a.issue()
}

func (a *Authenticator) issue() (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return token, claims, nil
}

// ParseToken verifies a session token and returns its claims.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie writes the session cookie.
func (a *Authenticator) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
