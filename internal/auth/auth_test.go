package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	a, err := New(Config{PasswordHash: string(hash), Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "plain password", cfg: Config{Password: "pw", Secret: "s", TTL: time.Hour}},
		{name: "missing secret", cfg: Config{Password: "pw", TTL: time.Hour}, wantErr: true},
		{name: "missing password", cfg: Config{Secret: "s", TTL: time.Hour}, wantErr: true},
		{name: "zero ttl", cfg: Config{Password: "pw", Secret: "s"}, wantErr: true},
		{name: "malformed hash", cfg: Config{PasswordHash: "not-bcrypt", Secret: "s", TTL: time.Hour}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthenticator_Login(t *testing.T) {
	a := newTestAuthenticator(t)

	if _, _, err := a.Login("wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("Login(wrong) error = %v, want ErrInvalidPassword", err)
	}

	token, claims, err := a.Login("open sesame")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if claims.SessionID == "" {
		t.Error("SessionID is empty")
	}

	parsed, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if parsed.SessionID != claims.SessionID {
		t.Errorf("SessionID = %q, want %q", parsed.SessionID, claims.SessionID)
	}

	_, second, err := a.Login("open sesame")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if second.SessionID == claims.SessionID {
		t.Error("each login should get a fresh session id")
	}
}

func TestAuthenticator_ParseToken_Rejects(t *testing.T) {
	a := newTestAuthenticator(t)

	expired := newTestAuthenticator(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.issue()
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	other, err := New(Config{Password: "open sesame", Secret: "another-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	forged, _, err := other.issue()
	if err != nil {
		t.Fatalf("issue() error = %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SessionID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: forged},
		{name: "unsigned", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestAuthenticator_Cookies(t *testing.T) {
	a := newTestAuthenticator(t)
	a.secure = true

	rec := httptest.NewRecorder()
	a.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "tok" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode || c.MaxAge != 3600 {
		t.Errorf("cookie = %+v", c)
	}

	rec = httptest.NewRecorder()
	a.ClearCookie(rec)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cleared cookie = %+v", c)
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	a := newTestAuthenticator(t)
	token, claims, err := a.Login("open sesame")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ClaimsFromContext(r.Context())
		if !ok || got.SessionID != claims.SessionID {
			t.Errorf("claims in context = %+v, %v", got, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "no credentials",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+token)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "bad bearer",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer nope")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "basic scheme ignored, cookie used",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
				r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
