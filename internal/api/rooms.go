package api

import (
	"net/http"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/services"

	"github.com/go-chi/chi/v5"
)

// CreateRoom handles POST /api/rooms
func (h *Handlers) CreateRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.CreateRoomReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		session, err := h.deps.Services.Rooms.CreateRoom(r.Context(), services.CreateRoomInput{
			Name:        req.Name,
			CreatorName: req.CreatorName,
			Avatar:      req.Avatar,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Room created", session, http.StatusCreated)
	}
}

// JoinRoom handles POST /api/rooms/join
func (h *Handlers) JoinRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.JoinRoomReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		session, err := h.deps.Services.Rooms.JoinRoom(r.Context(), services.JoinRoomInput{
			Code:   req.Code,
			Name:   req.Name,
			Avatar: req.Avatar,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Joined room", session)
	}
}

// GetRoom handles GET /api/rooms/{roomID}
func (h *Handlers) GetRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		room, err := h.deps.Services.Rooms.GetRoom(r.Context(), chi.URLParam(r, "roomID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Room fetched", dtos.NewRoomResponse(*room, true))
	}
}

// GetRoomByCode handles GET /api/rooms/code/{code}
func (h *Handlers) GetRoomByCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		room, err := h.deps.Services.Rooms.GetRoomByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Room fetched", dtos.NewRoomResponse(*room, true))
	}
}

// ListMembers handles GET /api/rooms/{roomID}/members
func (h *Handlers) ListMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		members, err := h.deps.Services.Rooms.ListMembers(r.Context(), chi.URLParam(r, "roomID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		out := make([]dtos.MemberResponse, 0, len(members))
		for _, m := range members {
			out = append(out, dtos.NewMemberResponse(m))
		}
		common.RespondSuccess(w, initTime, "Members fetched", out)
	}
}

// ListRoomRounds handles GET /api/rooms/{roomID}/rounds
func (h *Handlers) ListRoomRounds() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		rounds, err := h.deps.Services.Rounds.ListRoomRounds(r.Context(), chi.URLParam(r, "roomID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		out := make([]dtos.RoundResponse, 0, len(rounds))
		for _, rd := range rounds {
			out = append(out, dtos.NewRoundResponse(rd))
		}
		common.RespondSuccess(w, initTime, "Rounds fetched", out)
	}
}

// GetActiveRound handles GET /api/rooms/{roomID}/active-round. Data is null when no round is running.
func (h *Handlers) GetActiveRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		round, err := h.deps.Services.Rounds.GetActiveRound(r.Context(), chi.URLParam(r, "roomID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if round == nil {
			common.RespondSuccess(w, initTime, "No active round", nil)
			return
		}

		common.RespondSuccess(w, initTime, "Active round fetched", dtos.NewRoundResponse(*round))
	}
}

// GetRoomPresence handles GET /api/rooms/{roomID}/presence
func (h *Handlers) GetRoomPresence() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		roomID := chi.URLParam(r, "roomID")

		if _, err := h.deps.Services.Rooms.GetRoom(r.Context(), roomID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Presence fetched", h.deps.Services.Hub.Router().RoomStatus(roomID))
	}
}
