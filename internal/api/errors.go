package api

import (
	"net/http"

	"github.com/clipdeck/clipdeck/internal/domain"
)

// MapErrorToStatusCode maps pipeline faults to appropriate HTTP status
// codes based on the fault kind. This keeps the HTTP surface branching
// exhaustive over the error taxonomy instead of inspecting messages.
func MapErrorToStatusCode(err error) int {
	kind, ok := domain.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch kind {
	case domain.FaultValidation:
		return http.StatusBadRequest

	case domain.FaultCredential:
		return http.StatusUnprocessableEntity

	// The service was reached but rejected the request; the caller must
	// fix the card or destination before retrying.
	case domain.FaultStructural:
		return http.StatusUnprocessableEntity

	// Reported by the read-only enumeration endpoints when the card
	// service is down. Capture itself never surfaces this kind: it queues.
	case domain.FaultConnectivity:
		return http.StatusServiceUnavailable

	case domain.FaultTransientGeneration, domain.FaultPermanentGeneration:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
