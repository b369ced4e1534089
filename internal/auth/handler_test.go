package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockAuthService struct {
	loginFn         func(ctx context.Context, email, password string) (*Session, error)
	adminLoginFn    func(ctx context.Context, email, password string) (*Session, error)
	registerFn      func(ctx context.Context, in RegisterInput) (*User, error)
	verifyPaymentFn func(ctx context.Context, userID int64) (*User, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if m.loginFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	if m.adminLoginFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.adminLoginFn(ctx, email, password)
}

func (m *mockAuthService) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if m.registerFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.registerFn(ctx, in)
}

func (m *mockAuthService) VerifyPayment(ctx context.Context, userID int64) (*User, error) {
	if m.verifyPaymentFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.verifyPaymentFn(ctx, userID)
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ListPendingPayments(ctx context.Context) ([]User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) GetUser(ctx context.Context, userID int64) (*User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) UpdateUser(ctx context.Context, userID int64, in UpdateUserInput) (*User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) DeleteUser(ctx context.Context, userID int64) error {
	return errors.New("not implemented")
}

func (m *mockAuthService) ExportUsersExcel(ctx context.Context) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestLoginOK(t *testing.T) {
	h := &Handler{svc: &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*Session, error) {
			if email != "sara@example.test" {
				t.Fatalf("unexpected email: %s", email)
			}
			return &Session{Token: "jwt", User: User{ID: 3, Email: email, Role: RoleStudent, IsPaid: true}}, nil
		},
	}}

	payload := []byte(`{"email":"sara@example.test","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeMap(t, w)
	if body["ok"] != true {
		t.Fatalf("expected ok=true")
	}
}

func TestLoginPaymentGate(t *testing.T) {
	h := &Handler{svc: &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*Session, error) {
			return nil, ErrPaymentRequired
		},
	}}

	payload := []byte(`{"email":"unpaid@example.test","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unpaid student, got %d", w.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	h := &Handler{svc: &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*Session, error) {
			return nil, ErrInvalidCredentials
		},
	}}

	payload := []byte(`{"email":"sara@example.test","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAdminLoginRejectsStudents(t *testing.T) {
	h := &Handler{svc: &mockAuthService{
		adminLoginFn: func(ctx context.Context, email, password string) (*Session, error) {
			return nil, ErrForbidden
		},
	}}

	payload := []byte(`{"email":"student@example.test","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.AdminLogin(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	h := &Handler{svc: &mockAuthService{
		registerFn: func(ctx context.Context, in RegisterInput) (*User, error) {
			return nil, ErrEmailTaken
		},
	}}

	payload := []byte(`{"email":"sara@example.test","password":"correct-horse","name":"Sara"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}
