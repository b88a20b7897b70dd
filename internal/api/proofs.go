package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/logging"

	"github.com/go-chi/chi/v5"
)

// GetProof handles GET /api/proofs/{key}?token=...
// The token comes from a signed link handed out with the task.
func (h *Handlers) GetProof() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		key := chi.URLParam(r, "key")

		rc, err := h.deps.Services.Proofs.Open(r.Context(), key, r.URL.Query().Get("token"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		defer rc.Close()

		proofType := constants.ProofScreenshot
		if strings.HasSuffix(key, "."+constants.ProofPhoto.FileExtension()) {
			proofType = constants.ProofPhoto
		}

		w.Header().Set("Content-Type", proofType.ContentType())
		w.Header().Set("Cache-Control", "private, max-age=300")
		if _, err := io.Copy(w, rc); err != nil {
			logging.Warn("Failed to stream proof", "key", key, "error", err.Error())
		}
	}
}
