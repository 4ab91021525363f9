package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

type fakeUsers map[string]*model.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if id == "broken" {
		return nil, errors.New("disk on fire")
	}
	u, ok := f[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

var testUsers = fakeUsers{
	"u-admin": {ID: "u-admin", Role: model.RoleAdmin},
	"u-mod":   {ID: "u-mod", Role: model.RoleModerator},
	"u-user":  {ID: "u-user", Role: model.RoleUser},
}

// echoPrincipal writes the principal's user ID, or "anonymous".
var echoPrincipal = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		w.Write([]byte(p.UserID + ":" + string(p.Role)))
		return
	}
	w.Write([]byte("anonymous"))
})

func requestWithToken(t *testing.T, ts *TokenService, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if userID != "" {
		token, err := ts.Generate(userID)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	h := RequireAuth(ts, testUsers)(echoPrincipal)

	tests := []struct {
		name     string
		userID   string
		wantCode int
		wantBody string
	}{
		{"valid session", "u-mod", http.StatusOK, "u-mod:moderator"},
		{"no cookie", "", http.StatusUnauthorized, ""},
		{"deleted user", "u-gone", http.StatusUnauthorized, ""},
		{"lookup failure", "broken", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestWithToken(t, ts, tt.userID))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	ts := newTestTokenService(t)
	h := RequireAuth(ts, testUsers)(echoPrincipal)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"Unauthorized"}`, rec.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	h := OptionalAuth(ts, testUsers)(echoPrincipal)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(t, ts, ""))
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithToken(t, ts, "u-user"))
	assert.Equal(t, "u-user:user", rec.Body.String())
}

func TestRequireCapability(t *testing.T) {
	ts := newTestTokenService(t)
	h := RequireAuth(ts, testUsers)(RequireCapability(ActionManageRoles)(echoPrincipal))

	tests := []struct {
		userID   string
		wantCode int
	}{
		{"u-admin", http.StatusOK},
		{"u-mod", http.StatusForbidden},
		{"u-user", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run("user="+tt.userID, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestWithToken(t, ts, tt.userID))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireCapability_WithoutPrincipal(t *testing.T) {
	h := RequireCapability(ActionViewAdmin)(echoPrincipal)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
