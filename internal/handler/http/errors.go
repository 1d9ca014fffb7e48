package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/James-gosling/postgres-crud-app/internal/service"
)

// HandleServiceError 把业务错误翻译为对应的 HTTP 状态码。
// 所有走 JSON 错误路径的处理器共用此函数，保证同类错误一律返回同样的状态。
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrValidation) || errors.Is(err, service.ErrEmailTaken) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else if errors.Is(err, service.ErrUserNotFound) {
		ErrorResponse(c, http.StatusNotFound, err.Error())
	} else {
		// Log the internal error for debugging
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
