package constants

const (
	MsgRoomNotFound       = "Room not found"
	MsgRoundNotFound      = "Round not found"
	MsgTaskNotFound       = "Task not found"
	MsgUserNotFound       = "User not found"
	MsgNotRoomMember      = "User not a member of this room"
	MsgRoundAlreadyActive = "Room already has an active round"
	MsgRoundNotActive     = "Round is not active"
	MsgInvalidDateFormat  = "Invalid date format"
	MsgInvalidRoundWindow = "Round end must be after its start"
	MsgRoomCodeRequired   = "Room code is required"
	MsgNameTaken          = "User with this name already in room"
	MsgMissingIDs         = "user_id and room_id are required"
	MsgUnknownConnection  = "Connection is not registered"
	MsgNotInRoom          = "Connection has not joined a room"
	MsgUnknownMessage     = "Unknown message type"
	MsgInvalidRequestBody = "Invalid request body"
	MsgTooManyRequests    = "Too many requests"
	MsgRouteNotFound      = "Route not found"
	MsgRequestTooLarge    = "Request body too large"
)

const (
	MsgMissingTaskFields    = "Missing required fields"
	MsgInvalidTemplate      = "Invalid task template"
	MsgInvalidMultiplier    = "Difficulty multiplier must be greater than zero"
	MsgPointsTooLarge       = "Task points may not exceed %d"
	MsgTargetOutOfRange     = "Target must be between %d and %d %s"
	MsgInvalidProofType     = "Invalid proof type"
	MsgProofDataType        = "Proof data requires a photo or screenshot proof type"
	MsgInvalidProofData     = "Proof data must be base64 encoded"
	MsgInvalidProofToken    = "Invalid or expired proof link"
	MsgProofNotFound        = "Proof not found"
	MsgTaskAlreadyDone      = "Task already processed"
	MsgProofRequired        = "Proof URL or proof data is required"
	MsgProofAlreadyAttached = "Proof already attached"
	MsgCannotApproveOwn     = "Cannot approve your own task"
	MsgNoProof              = "Task has no proof to approve"
	MsgAlreadyDecided       = "Task approval already decided"
	MsgOnlyApprovedFlagged  = "Can only flag approved tasks"
	MsgAlreadyFlagged       = "Task already flagged by this user"
	MsgNotFlagged           = "Task is not flagged for voting"
	MsgAlreadyVoted         = "User already voted on this task"
	MsgTaskFinalized        = "Task already finalized"
)
