package v1

import (
	"errors"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/logger"
	"glowmart-backend/pkg/utils"
	"net/http"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// actorFrom reads the caller placed in the context by AuthMiddleware.
func actorFrom(r *http.Request) (domain.Actor, bool) {
	user, ok := r.Context().Value(domain.UserContextKey).(*domain.User)
	if !ok || user == nil || user.ID == "" {
		return domain.Actor{}, false
	}
	return domain.Actor{ID: user.ID, Role: user.Role}, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type errorBody struct {
	Error string        `json:"error"`
	Field string        `json:"field,omitempty"`
	Order *domain.Order `json:"order,omitempty"`
}

// writeError maps use case errors to HTTP responses. On a rejected
// transition the unchanged order is sent back with the 409.
func writeError(w http.ResponseWriter, r *http.Request, err error, order *domain.Order) {
	var (
		validation *domain.ValidationError
		transition *domain.InvalidTransitionError
		authz      *domain.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		utils.WriteJSON(w, http.StatusBadRequest, errorBody{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &transition):
		utils.WriteJSON(w, http.StatusConflict, errorBody{Error: transition.Error(), Order: order})
	case errors.As(err, &authz):
		utils.WriteError(w, http.StatusForbidden, "not permitted")
	case errors.Is(err, domain.ErrOrderNotFound):
		utils.WriteError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, domain.ErrConcurrentUpdate):
		utils.WriteError(w, http.StatusConflict, "Order was modified concurrently, please retry")
	default:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
