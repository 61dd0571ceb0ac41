package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/havenapp/haven-server/internal/domain"
	domainerrors "github.com/havenapp/haven-server/internal/errors"
	"github.com/havenapp/haven-server/internal/service"
)

type ctxKey string

// userIDKey carries the authenticated user ID through the request
// context.
const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context, or a 401
// error when the request carried no valid token.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware resolves the Bearer token into a user ID on the
// context. A missing or invalid token is not rejected here; handlers
// that need authentication call GetUserID and fail there. Public
// endpoints like setup and health stay reachable this way.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, _, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), user.ID)))
		})
	}
}

// RequireUser loads the authenticated user, answering 401 when the
// request is anonymous or the account no longer exists.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, huma.Error401Unauthorized("User not found")
	}

	return user, nil
}

// RequireRoot is RequireUser plus a root check.
func (s *Server) RequireRoot(ctx context.Context) (*domain.User, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if !user.IsRoot {
		return nil, domainerrors.Forbidden("Root access required")
	}

	return user, nil
}
