package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"studykwork/internal/app"
	"studykwork/internal/transport/http/middleware"
	"studykwork/internal/transport/http/response"
)

// writeError maps service errors onto status and code. Unknown errors are logged and
// reported as "<action> failed".
func writeError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
	case app.IsValidation(err):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, app.ErrInvalidToken), errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrListingNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), action+" failed",
			"request_id", middleware.RequestIDFromContext(c),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, action+" failed")
	}
}
