package api

import (
	"net/http"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/services"

	"github.com/go-chi/chi/v5"
)

// StartRound handles POST /api/rounds
func (h *Handlers) StartRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.StartRoundReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		round, err := h.deps.Services.Rounds.StartRound(r.Context(), services.StartRoundInput{
			RoomID:  req.RoomID,
			UserID:  req.UserID,
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
			Stakes:  req.Stakes,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Round started", dtos.NewRoundResponse(*round), http.StatusCreated)
	}
}

// GetRound handles GET /api/rounds/{roundID}
func (h *Handlers) GetRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		round, err := h.deps.Services.Rounds.GetRound(r.Context(), chi.URLParam(r, "roundID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Round fetched", dtos.NewRoundResponse(*round))
	}
}

// EndRound handles POST /api/rounds/{roundID}/end
func (h *Handlers) EndRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.EndRoundReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		result, err := h.deps.Services.Rounds.EndRound(r.Context(), chi.URLParam(r, "roundID"), req.UserID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Round ended", result)
	}
}

// GetRoundStats handles GET /api/rounds/{roundID}/stats
func (h *Handlers) GetRoundStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		roundID := chi.URLParam(r, "roundID")

		standings, err := h.deps.Services.Scores.ComputeStandings(r.Context(), roundID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Round stats fetched", dtos.RoundStatsResponse{
			RoundID: roundID,
			Stats:   *standings,
		})
	}
}
