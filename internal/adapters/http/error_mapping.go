package httpadapter

import (
	"net/http"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrEventNotFound),
		domain.IsKind(err, domain.ErrPlaceNotFound),
		domain.IsKind(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
