package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// HandleServiceError maps business errors onto HTTP status codes.
// PasswordRequired and PasswordMismatch stay distinguishable in the body
// so clients can prompt correctly; both are 401.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidVariant),
		errors.Is(err, service.ErrContentRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrAnonymousNotAllowed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPanelNotFound),
		errors.Is(err, service.ErrPostNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordMismatch):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrPanelFull):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
