package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slapshotlabs/rinkside/internal/api/auth"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/db"
)

type staticLookup map[string]string

func (s staticLookup) GetRole(ctx context.Context, userID string) (string, error) {
	role, ok := s[userID]
	if !ok {
		return "", authz.ErrRoleNotFound
	}
	return role, nil
}

func newAuthStack(t *testing.T, roles map[string]string) (*auth.SessionManager, *authz.Resolver) {
	t.Helper()
	database, err := db.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	sessions, err := auth.NewSessionManager("test-secret", database.Store, false)
	if err != nil {
		t.Fatalf("create session manager: %v", err)
	}
	return sessions, authz.NewResolver(staticLookup(roles))
}

func sessionCookie(t *testing.T, sessions *auth.SessionManager, userID, email string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := sessions.Issue(t.Context(), w, userID, email); err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return w.Result().Cookies()[0]
}

func guardedPage(t *testing.T, roles map[string]string, allowed ...authz.Role) (http.Handler, *auth.SessionManager) {
	t.Helper()
	sessions, resolver := newAuthStack(t, roles)
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("console"))
	})
	handler := ChainMiddleware(page, RequirePage(allowed...), WithAuth(sessions, resolver))
	return handler, sessions
}

func TestUnauthenticatedPageRedirectsToLogin(t *testing.T) {
	handler, _ := guardedPage(t, nil, authz.RoleAdmin)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}
}

func TestRolelessUserGetsNoRoleDiagnostic(t *testing.T) {
	handler, sessions := guardedPage(t, nil, authz.RoleAdmin)
	cookie := sessionCookie(t, sessions, "u-1", "new@rinkside.test")

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No role assigned") {
		t.Errorf("body should carry the no-role diagnostic: %q", w.Body.String())
	}
}

func TestWrongRoleGetsPermissionDiagnostic(t *testing.T) {
	handler, sessions := guardedPage(t, map[string]string{"u-1": "user"}, authz.RoleAdmin)
	cookie := sessionCookie(t, sessions, "u-1", "fan@rinkside.test")

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Insufficient permissions") {
		t.Errorf("body should carry the permission diagnostic: %q", w.Body.String())
	}
}

func TestAllowedRolePassesGuard(t *testing.T) {
	handler, sessions := guardedPage(t, map[string]string{"u-1": "admin"}, authz.RoleAdmin, authz.RoleCommissioner)
	cookie := sessionCookie(t, sessions, "u-1", "boss@rinkside.test")

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "console" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestBootstrapAdminBypassesRoleLookup(t *testing.T) {
	handler, sessions := guardedPage(t, nil, authz.RoleAdmin)
	cookie := sessionCookie(t, sessions, auth.BootstrapUserID, "root@rinkside.test")

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("bootstrap admin should pass the guard, got %d", w.Code)
	}
}

type panicLookup struct{}

func (panicLookup) GetRole(ctx context.Context, userID string) (string, error) {
	panic("role lookup blew up")
}

func TestRecoveryCoversAuthPanics(t *testing.T) {
	sessions, _ := newAuthStack(t, nil)
	resolver := authz.NewResolver(panicLookup{})
	cookie := sessionCookie(t, sessions, "u-1", "fan@rinkside.test")

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite panicking lookup")
	})
	// Same wrap order the server uses, so recovery sits outside auth.
	handler := ChainMiddleware(inner, WithLogging, WithAuth(sessions, resolver), WithRecovery, WithRequestID)

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value("request_id") == nil {
			t.Error("request id missing from context")
		}
	})
	handler := ChainMiddleware(inner, WithRequestID)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
