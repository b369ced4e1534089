package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	user := &User{ID: 12, Role: RoleStudent, Name: "Yassine"}

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 12 || claims.Role != RoleStudent || claims.Name != "Yassine" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(&User{ID: 1, Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected parse failure with the wrong secret")
	}
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)
	token, err := m.Issue(&User{ID: 1, Role: RoleStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected parse failure for an expired token")
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, err := m.Issue(&User{ID: 5, Role: RoleAdmin, Name: "Admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := CurrentUser(r.Context())
		if !ok || claims.UserID != 5 {
			t.Fatalf("claims missing in context: %+v", claims)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	adminToken, _ := m.Issue(&User{ID: 1, Role: RoleAdmin})
	studentToken, _ := m.Issue(&User{ID: 2, Role: RoleStudent})

	handler := m.RequireAuth(RequireRoles("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/exams", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin should pass, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/exams", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("student should be forbidden, got %d", w.Code)
	}
}
