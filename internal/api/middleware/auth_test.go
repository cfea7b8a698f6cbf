package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pricewatch/console-auth/internal/core/domain"
	"github.com/pricewatch/console-auth/internal/infrastructure/token"
)

func newIssuer(t *testing.T, secret string) *token.JWTIssuer {
	t.Helper()
	iss, err := token.NewJWTIssuer(secret, token.WithTokenExpiry(time.Hour, 2*time.Hour))
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return iss
}

func runAuth(t *testing.T, iss *token.JWTIssuer, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Auth(iss)(next)(c)
}

func expectUnauthorized(t *testing.T, err error) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", he.Code)
	}
}

func TestAuthMiddleware_ValidAccessToken(t *testing.T) {
	iss := newIssuer(t, "secret")
	pair, err := iss.GeneratePair(domain.TokenSubject{ID: "u1", Email: "a@x.com", Username: "alice", Kind: domain.KindAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	called := false
	rec, err := runAuth(t, iss, "Bearer "+pair.AccessToken, func(c echo.Context) error {
		called = true
		if c.Get(ActorIDKey) != "u1" {
			t.Fatalf("actor_id not set")
		}
		if c.Get(ActorKindKey) != domain.KindAdmin {
			t.Fatalf("actor_kind not set")
		}
		if _, ok := c.Get(ClaimsKey).(*domain.Claims); !ok {
			t.Fatalf("claims not set")
		}
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	_, err := runAuth(t, newIssuer(t, "secret"), "", func(c echo.Context) error {
		t.Fatalf("next should not be called")
		return nil
	})
	expectUnauthorized(t, err)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	_, err := runAuth(t, newIssuer(t, "secret"), "Token abc", func(c echo.Context) error {
		t.Fatalf("next should not be called")
		return nil
	})
	expectUnauthorized(t, err)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	pair, err := newIssuer(t, "other").GeneratePair(domain.TokenSubject{ID: "u1", Kind: domain.KindAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = runAuth(t, newIssuer(t, "secret"), "Bearer "+pair.AccessToken, func(c echo.Context) error {
		t.Fatalf("next should not be called")
		return nil
	})
	expectUnauthorized(t, err)
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	iss := newIssuer(t, "secret")
	pair, err := iss.GeneratePair(domain.TokenSubject{ID: "u1", Kind: domain.KindOperative})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = runAuth(t, iss, "Bearer "+pair.RefreshToken, func(c echo.Context) error {
		t.Fatalf("next should not be called")
		return nil
	})
	expectUnauthorized(t, err)
}

func TestRequireKind(t *testing.T) {
	tests := []struct {
		name string
		kind any
		code int
	}{
		{"admin allowed", domain.KindAdmin, http.StatusOK},
		{"operative forbidden", domain.KindOperative, http.StatusForbidden},
		{"missing", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			if tt.kind != nil {
				c.Set(ActorKindKey, tt.kind)
			}

			h := RequireKind(domain.KindAdmin)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
