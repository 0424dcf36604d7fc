package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeBadRequest         = 40000
	CodeEmailExists        = 40001
	CodeUnauthorized       = 40100
	CodeInvalidCredentials = 40101
	CodeForbidden          = 40300
	CodeNotFound           = 40400
	CodeTooManyRequests    = 42900
	CodeInternalServer     = 50000
)

// ErrorResponse keeps the human message under "error" and adds a stable numeric code.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// Abort writes the error and stops the handler chain.
func Abort(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
