package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studykwork/internal/app"
	"studykwork/internal/model"
	"studykwork/internal/transport/http/response"
)

const ContextUserKey = "user"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.User, error)
}

func AuthJWT(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization scheme")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, app.ErrInvalidToken) || errors.Is(err, app.ErrUserNotFound) {
				response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid or expired token")
				return
			}
			slog.ErrorContext(c.Request.Context(), "verify token failed", "request_id", RequestIDFromContext(c), "error", err)
			response.Abort(c, http.StatusInternalServerError, response.CodeInternalServer, "internal server error")
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthJWT.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok && user != nil
}
