package api

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/services"

	"github.com/go-chi/chi/v5"
)

// CreateTask handles POST /api/rounds/{roundID}/tasks
func (h *Handlers) CreateTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.CreateTaskReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		task, err := h.deps.Services.Tasks.CreateTask(r.Context(), services.CreateTaskInput{
			RoundID:              chi.URLParam(r, "roundID"),
			CreatorID:            req.CreatorID,
			Template:             req.Template,
			Title:                req.Title,
			Description:          req.Description,
			Target:               req.Target,
			TargetUnit:           req.TargetUnit,
			DifficultyMultiplier: req.DifficultyMultiplier,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Task created", task, http.StatusCreated)
	}
}

// ListRoundTasks handles GET /api/rounds/{roundID}/tasks
func (h *Handlers) ListRoundTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		tasks, err := h.deps.Services.Tasks.ListRoundTasks(r.Context(), chi.URLParam(r, "roundID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Tasks fetched", tasks)
	}
}

// PendingApprovals handles GET /api/rounds/{roundID}/pending-approvals
func (h *Handlers) PendingApprovals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		tasks, err := h.deps.Services.Tasks.PendingApprovals(r.Context(), chi.URLParam(r, "roundID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Pending approvals fetched", tasks)
	}
}

// FlaggedTasks handles GET /api/rounds/{roundID}/flagged-tasks
func (h *Handlers) FlaggedTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		tasks, err := h.deps.Services.Consensus.FlaggedTasks(r.Context(), chi.URLParam(r, "roundID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Flagged tasks fetched", tasks)
	}
}

// decodeProofData accepts plain base64 or a data URL.
func decodeProofData(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "data:") {
		if i := strings.IndexByte(raw, ','); i >= 0 {
			raw = raw[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, common.NewInvalidInput(constants.MsgInvalidProofData)
	}
	return data, nil
}

// AttachProof handles POST /api/tasks/{taskID}/proof
func (h *Handlers) AttachProof() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.AttachProofReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		data, err := decodeProofData(req.ProofData)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		task, err := h.deps.Services.Tasks.AttachProof(r.Context(), services.AttachProofInput{
			TaskID:    chi.URLParam(r, "taskID"),
			ProofURL:  req.ProofURL,
			ProofType: req.ProofType,
			ProofData: data,
		})
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Proof attached", task)
	}
}

// ApproveTask handles POST /api/tasks/{taskID}/approve
func (h *Handlers) ApproveTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.ApproveTaskReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if req.ApproverID == "" || req.Approve == nil {
			common.RespondAppError(w, initTime, common.NewInvalidInput(constants.MsgMissingTaskFields))
			return
		}

		result, err := h.deps.Services.Tasks.ApproveTask(r.Context(), chi.URLParam(r, "taskID"), req.ApproverID, *req.Approve)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Approval recorded", result)
	}
}

// FlagTask handles POST /api/tasks/{taskID}/flag
func (h *Handlers) FlagTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.FlagTaskReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if req.FlaggerID == "" {
			common.RespondAppError(w, initTime, common.NewInvalidInput(constants.MsgMissingTaskFields))
			return
		}

		result, err := h.deps.Services.Consensus.FlagTask(r.Context(), chi.URLParam(r, "taskID"), req.FlaggerID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Task flagged", result)
	}
}

// CastFlagVote handles POST /api/tasks/{taskID}/vote
func (h *Handlers) CastFlagVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.FlagVoteReq
		if err := h.decodeJSON(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		if req.VoterID == "" || req.Vote == nil {
			common.RespondAppError(w, initTime, common.NewInvalidInput(constants.MsgMissingTaskFields))
			return
		}

		result, err := h.deps.Services.Consensus.CastFlagVote(r.Context(), chi.URLParam(r, "taskID"), req.VoterID, *req.Vote)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Vote recorded", result)
	}
}
