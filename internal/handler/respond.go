package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, errType, message string) {
	slog.WarnContext(c.Request.Context(), "request failed",
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", status),
		slog.String("error", message),
	)

	c.JSON(status, ErrorResponse{
		Error:   errType,
		Message: message,
	})
}
