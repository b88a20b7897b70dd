package dtos

type CreateRoomReq struct {
	Name        string `json:"name"`
	CreatorName string `json:"creator_name"`
	Avatar      string `json:"avatar"`
}

type JoinRoomReq struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type StartRoundReq struct {
	RoomID  string `json:"room_id"`
	UserID  string `json:"user_id"`
	StartAt string `json:"start_at"` // RFC3339, optional
	EndAt   string `json:"end_at"`   // RFC3339, optional
	Stakes  string `json:"stakes"`
}

type EndRoundReq struct {
	UserID string `json:"user_id"`
}

type CreateTaskReq struct {
	CreatorID            string   `json:"creator_id"`
	Template             string   `json:"template"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Target               int      `json:"target"`
	TargetUnit           string   `json:"target_unit"`
	DifficultyMultiplier *float64 `json:"difficulty_multiplier"`
}

// AttachProofReq carries either a link/text proof or base64 encoded image data.
type AttachProofReq struct {
	ProofURL  string `json:"proof_url"`
	ProofType string `json:"proof_type"`
	ProofData string `json:"proof_data"`
}

type ApproveTaskReq struct {
	ApproverID string `json:"approver_id"`
	Approve    *bool  `json:"approve"`
}

type FlagTaskReq struct {
	FlaggerID string `json:"flagger_id"`
}

type FlagVoteReq struct {
	VoterID string `json:"voter_id"`
	Vote    *bool  `json:"vote"`
}

// WSInboundMessage is a client frame received over the websocket.
type WSInboundMessage struct {
	Type string          `json:"type"`
	Data WSInboundFields `json:"data"`
}

type WSInboundFields struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}
