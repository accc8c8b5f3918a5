package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/pantry-tracker/internal/common"
)

// bindJSON binds the request body into out, writing a 400 on failure.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request_body",
			"message": err.Error(),
		})
		return false
	}
	return true
}

// writeError maps an error chain onto a status code and a JSON body.
func writeError(c *gin.Context, logger *slog.Logger, event string, err error) {
	status := common.HTTPStatus(err)
	body := gin.H{"error": "internal_error", "message": http.StatusText(status)}

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		body["error"] = appErr.Code
		body["message"] = appErr.Message
	}
	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		body["fields"] = fields
	}

	l := common.LoggerWithRequest(c.Request.Context(), logger)
	if status >= 500 {
		l.Error(event, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	c.JSON(status, body)
}
