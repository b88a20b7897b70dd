package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

const defaultMaxBodyBytes = 8 << 20

// decodeJSON reads a request body into dst, capped at the configured size.
// Unknown fields are ignored.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := h.deps.Config.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return common.NewInvalidInput(constants.MsgRequestTooLarge)
		}
		return common.NewInvalidInput(constants.MsgInvalidRequestBody)
	}
	return nil
}
