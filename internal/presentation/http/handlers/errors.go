// Package handlers provides HTTP handlers for the editor API
package handlers

import (
	"errors"
	"net/http"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/codegen"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

var badRequestErrors = []error{
	scene.ErrInvalidScene,
	scene.ErrUnknownField,
	scene.ErrInvalidValue,
	scene.ErrInactiveField,
	scene.ErrUnknownBackground,
	scene.ErrUnknownBlendMode,
	media.ErrInvalidSize,
	media.ErrUnsupportedFormat,
	codegen.ErrUnknownFormat,
	services.ErrInvalidLogSetting,
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, security.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, stores.ErrSessionLimit):
		return http.StatusTooManyRequests
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"error": err.Error()})
}
