package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

// CookieName is the cookie holding the session JWT.
const CookieName = "token"

// Principal is the authenticated caller of one request.
type Principal struct {
	UserID string
	Role   model.Role
}

// Can reports whether the principal's role grants action.
func (p Principal) Can(action Action) bool {
	return HasCapability(p.Role, action)
}

// UserLookup loads the user a token belongs to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// contextKey is unexported so no other package can read or shadow the value.
type contextKey struct{}

var principalKey contextKey

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the caller of the request, or false when the
// request is anonymous.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UserID != ""
}

// RequireAuth rejects requests without a valid session with 401. A token
// whose user no longer exists is treated as no session.
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolve(r, tokens, users)
			if err != nil {
				if errors.Is(err, errLookup) {
					writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
					return
				}
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches the principal when a valid session is present and
// lets anonymous requests through unchanged.
func OptionalAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := resolve(r, tokens, users); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability must run after RequireAuth. It answers 401 when there is
// no principal and 403 when the principal's role lacks action.
func RequireCapability(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			if !p.Can(action) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var errLookup = errors.New("auth: loading session user")

func resolve(r *http.Request, tokens *TokenService, users UserLookup) (Principal, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Principal{}, err
	}

	userID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return Principal{}, err
	}

	user, err := users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Principal{}, err
		}
		return Principal{}, errors.Join(errLookup, err)
	}

	return Principal{UserID: user.ID, Role: user.Role}, nil
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
