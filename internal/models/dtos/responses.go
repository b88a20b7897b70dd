package dtos

import (
	"time"

	"grindhouse/scoreboard/internal/constants"
	gormModels "grindhouse/scoreboard/internal/models/gorm"
)

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomResponse struct {
	ID          string           `json:"id"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	CreatedAt   time.Time        `json:"created_at"`
	MemberCount int              `json:"member_count"`
	Members     []MemberResponse `json:"members,omitempty"`
}

type MemberResponse struct {
	ID       string       `json:"id"`
	RoomID   string       `json:"room_id"`
	UserID   string       `json:"user_id"`
	IsHost   bool         `json:"is_host"`
	JoinedAt time.Time    `json:"joined_at"`
	User     UserResponse `json:"user"`
}

// RoomSessionResponse is returned when a room is created or joined.
type RoomSessionResponse struct {
	Room   RoomResponse   `json:"room"`
	User   UserResponse   `json:"user"`
	Member MemberResponse `json:"member"`
	Code   string         `json:"code"`
}

type RoundResponse struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Stakes    string    `json:"stakes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskResponse struct {
	ID                   string        `json:"id"`
	RoundID              string        `json:"round_id"`
	CreatorID            string        `json:"creator_id"`
	Template             string        `json:"template"`
	Title                string        `json:"title"`
	Description          string        `json:"description"`
	Target               int           `json:"target"`
	TargetUnit           string        `json:"target_unit"`
	ProofURL             string        `json:"proof_url"`
	ProofType            string        `json:"proof_type"`
	Approval             string        `json:"approval"`
	Points               int           `json:"points"`
	DifficultyMultiplier float64       `json:"difficulty_multiplier"`
	FlaggedCount         int           `json:"flagged_count"`
	FlagVerdict          string        `json:"flag_verdict,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	CompletedAt          *time.Time    `json:"completed_at"`
	DecidedAt            *time.Time    `json:"decided_at"`
	Creator              *UserResponse `json:"creator,omitempty"`
}

type VoteResponse struct {
	ID        string    `json:"id"`
	RoundID   string    `json:"round_id"`
	TaskID    string    `json:"task_id"`
	VoterID   string    `json:"voter_id"`
	Vote      bool      `json:"vote"`
	VoteType  string    `json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
}

// FlagTally summarizes flag-validation ballots on a task.
type FlagTally struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

type FlaggedTaskResponse struct {
	TaskResponse
	FlagVotes FlagTally `json:"flag_votes"`
}

type LeaderboardEntry struct {
	UserID      string  `json:"user_id" db:"user_id"`
	UserName    string  `json:"user_name" db:"user_name"`
	UserAvatar  string  `json:"user_avatar" db:"user_avatar"`
	TotalPoints float64 `json:"total_points"`
	TaskCount   int     `json:"task_count"`
	Rank        int     `json:"rank"`
}

type RoundStandings struct {
	Leaderboard        []LeaderboardEntry `json:"leaderboard"`
	TotalTasks         int                `json:"total_tasks"`
	TotalPointsAwarded float64            `json:"total_points_awarded"`
}

type RoundStatsResponse struct {
	RoundID string         `json:"round_id"`
	Stats   RoundStandings `json:"stats"`
}

type EndRoundResponse struct {
	Round      RoundResponse  `json:"round"`
	FinalStats RoundStandings `json:"final_stats"`
}

type ApproveTaskResponse struct {
	Task TaskResponse `json:"task"`
	Vote VoteResponse `json:"vote"`
}

type FlagTaskResponse struct {
	Task         TaskResponse `json:"task"`
	FlaggedCount int          `json:"flagged_count"`
}

type FlagVoteResponse struct {
	Task      TaskResponse `json:"task"`
	Vote      VoteResponse `json:"vote"`
	FlagVotes FlagTally    `json:"flag_votes"`
	Finalized bool         `json:"finalized"`
}

type PresenceMember struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	ConnID   string    `json:"session_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type RoomStatusResponse struct {
	RoomID        string           `json:"room_id"`
	OnlineMembers []PresenceMember `json:"online_members"`
	TotalOnline   int              `json:"total_online"`
}

func NewUserResponse(u gormModels.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func NewMemberResponse(m gormModels.RoomMember) MemberResponse {
	return MemberResponse{
		ID:       m.ID,
		RoomID:   m.RoomID,
		UserID:   m.UserID,
		IsHost:   m.IsHost,
		JoinedAt: m.JoinedAt,
		User:     NewUserResponse(m.User),
	}
}

// NewRoomResponse maps a room; members are included only when preloaded.
func NewRoomResponse(r gormModels.Room, withMembers bool) RoomResponse {
	resp := RoomResponse{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		MemberCount: len(r.Members),
	}
	if withMembers {
		resp.Members = make([]MemberResponse, 0, len(r.Members))
		for _, m := range r.Members {
			resp.Members = append(resp.Members, NewMemberResponse(m))
		}
	}
	return resp
}

func NewRoundResponse(r gormModels.Round) RoundResponse {
	return RoundResponse{
		ID:        r.ID,
		RoomID:    r.RoomID,
		StartAt:   r.StartAt,
		EndAt:     r.EndAt,
		Stakes:    r.Stakes,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// NewTaskResponse maps a task. proofURL overrides the stored URL so blob-backed
// proofs can be exposed through a signed link.
func NewTaskResponse(t gormModels.Task, proofURL string) TaskResponse {
	resp := TaskResponse{
		ID:                   t.ID,
		RoundID:              t.RoundID,
		CreatorID:            t.CreatorID,
		Template:             string(t.Template),
		Title:                t.Title,
		Description:          t.Description,
		Target:               t.Target,
		TargetUnit:           t.TargetUnit,
		ProofURL:             proofURL,
		ProofType:            string(t.ProofType),
		Approval:             string(t.Approval),
		Points:               t.Points,
		DifficultyMultiplier: t.DifficultyMultiplier,
		FlaggedCount:         t.FlaggedCount,
		FlagVerdict:          string(t.FlagVerdict),
		CreatedAt:            t.CreatedAt,
		CompletedAt:          t.CompletedAt,
		DecidedAt:            t.DecidedAt,
	}
	if t.Creator.ID != "" {
		creator := NewUserResponse(t.Creator)
		resp.Creator = &creator
	}
	return resp
}

func NewVoteResponse(v gormModels.Vote) VoteResponse {
	return VoteResponse{
		ID:        v.ID,
		RoundID:   v.RoundID,
		TaskID:    v.TaskID,
		VoterID:   v.VoterID,
		Vote:      v.Value,
		VoteType:  string(v.Kind),
		CreatedAt: v.CreatedAt,
	}
}

// IsApproved is a convenience for event payloads that still speak in booleans.
func (t TaskResponse) IsApproved() bool {
	return t.Approval == string(constants.ApprovalApproved)
}
