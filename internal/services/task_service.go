package services

import (
	"context"
	"strings"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
)

type CreateTaskInput struct {
	RoundID              string
	CreatorID            string
	Template             string
	Title                string
	Description          string
	Target               int
	TargetUnit           string
	DifficultyMultiplier *float64
}

type AttachProofInput struct {
	TaskID    string
	ProofURL  string
	ProofType string
	ProofData []byte
}

// TaskStore groups the repositories task mutations need.
type TaskStore struct {
	DB     *gorm.DB
	Rooms  *repositories.RoomRepository
	Rounds *repositories.RoundRepository
	Tasks  *repositories.TaskRepository
	Votes  *repositories.VoteRepository
}

// TaskService owns task creation, proof submission and peer approval.
// Every mutation of a task runs under taskLocks keyed by task id. Creation runs
// under the room lock shared with RoundService so a round cannot end mid-insert.
type TaskService struct {
	store     TaskStore
	scores    *ScoreService
	proofs    *ProofService
	publisher Publisher
	metrics   *metrics.MetricsRegistry
	roomLocks *common.KeyedMutex
	taskLocks *common.KeyedMutex
	now       func() time.Time
}

func NewTaskService(
	store TaskStore,
	scores *ScoreService,
	proofs *ProofService,
	publisher Publisher,
	metricsReg *metrics.MetricsRegistry,
	roomLocks *common.KeyedMutex,
	taskLocks *common.KeyedMutex,
) *TaskService {
	return &TaskService{
		store:     store,
		scores:    scores,
		proofs:    proofs,
		publisher: publisher,
		metrics:   metricsReg,
		roomLocks: roomLocks,
		taskLocks: taskLocks,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask adds a pending task to an active round.
func (svc *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*dtos.TaskResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Template == "" || in.CreatorID == "" {
		return nil, common.NewInvalidInput(constants.MsgMissingTaskFields)
	}
	template := constants.TaskTemplate(in.Template)
	rule, ok := template.Rule()
	if !ok {
		return nil, common.NewInvalidInput(constants.MsgInvalidTemplate)
	}

	round, err := svc.store.Rounds.GetByID(ctx, in.RoundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if round == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}
	if !round.IsActive() {
		return nil, common.NewConflict(constants.MsgRoundNotActive)
	}
	if err := requireMember(ctx, svc.store.Rooms, round.RoomID, in.CreatorID); err != nil {
		return nil, err
	}

	multiplier := 1.0
	if in.DifficultyMultiplier != nil {
		multiplier = *in.DifficultyMultiplier
	}
	points, err := CalculatePoints(template, in.Target, multiplier)
	if err != nil {
		return nil, err
	}

	unlock := svc.roomLocks.Lock(round.RoomID)
	defer unlock()

	// Re-read under the lock: the round may have ended since the first check.
	round, err = svc.store.Rounds.GetByID(ctx, round.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if round == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}
	if !round.IsActive() {
		return nil, common.NewConflict(constants.MsgRoundNotActive)
	}

	task := gormModels.Task{
		RoundID:              round.ID,
		CreatorID:            in.CreatorID,
		Template:             template,
		Title:                title,
		Description:          in.Description,
		Target:               in.Target,
		TargetUnit:           defaultString(in.TargetUnit, rule.DefaultUnit),
		Approval:             constants.ApprovalPending,
		Points:               points,
		DifficultyMultiplier: multiplier,
	}
	if err := svc.store.Tasks.Create(ctx, &task); err != nil {
		return nil, storeFailure(err)
	}

	if creator, err := svc.store.Rooms.GetUserByID(ctx, task.CreatorID); err == nil && creator != nil {
		task.Creator = *creator
	}

	svc.metrics.TasksCreated.WithLabelValues(string(template)).Inc()
	logging.Info("Task created", "round_id", round.ID, "task_id", task.ID, "template", template, "points", points)

	resp := svc.proofs.TaskResponse(task)
	svc.scores.Invalidate(round.ID)
	svc.publisher.Publish(round.RoomID, constants.EventTaskCreated, resp)
	return &resp, nil
}

// AttachProof records completion evidence on a pending task. Proof is one-shot.
func (svc *TaskService) AttachProof(ctx context.Context, in AttachProofInput) (*dtos.TaskResponse, error) {
	proofURL := strings.TrimSpace(in.ProofURL)
	if proofURL == "" && len(in.ProofData) == 0 {
		return nil, common.NewInvalidInput(constants.MsgProofRequired)
	}
	proofType := constants.ProofType(defaultString(in.ProofType, string(constants.ProofText)))
	if !proofType.Valid() {
		return nil, common.NewInvalidInput(constants.MsgInvalidProofType)
	}
	if len(in.ProofData) > 0 && !proofType.StoresBlob() {
		return nil, common.NewInvalidInput(constants.MsgProofDataType)
	}

	unlock := svc.taskLocks.Lock(in.TaskID)
	defer unlock()

	task, round, err := loadTaskWithRound(ctx, svc.store.Tasks, svc.store.Rounds, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.Approval != constants.ApprovalPending {
		return nil, common.NewConflict(constants.MsgTaskAlreadyDone)
	}
	if task.HasProof() {
		return nil, common.NewConflict(constants.MsgProofAlreadyAttached)
	}

	var blobKey string
	if len(in.ProofData) > 0 {
		blobKey, err = svc.proofs.Store(ctx, task.ID, proofType, in.ProofData)
		if err != nil {
			return nil, storeFailure(err)
		}
		proofURL = ""
	}

	completedAt := svc.now()
	err = svc.store.Tasks.Update(ctx, task.ID, map[string]interface{}{
		"proof_url":      proofURL,
		"proof_type":     proofType,
		"proof_blob_key": blobKey,
		"completed_at":   completedAt,
	})
	if err != nil {
		if blobKey != "" {
			svc.proofs.Discard(ctx, blobKey)
		}
		return nil, storeFailure(err)
	}

	task.ProofURL = proofURL
	task.ProofType = proofType
	task.ProofBlobKey = blobKey
	task.CompletedAt = &completedAt

	logging.Info("Proof attached", "task_id", task.ID, "proof_type", proofType, "stored_blob", blobKey != "")

	resp := svc.proofs.TaskResponse(*task)
	svc.scores.Invalidate(round.ID)
	svc.publisher.Publish(round.RoomID, constants.EventTaskCompleted, resp)
	return &resp, nil
}

// ApproveTask records a peer's approval decision. The task update and the
// approval ballot commit together.
func (svc *TaskService) ApproveTask(ctx context.Context, taskID, approverID string, approve bool) (*dtos.ApproveTaskResponse, error) {
	unlock := svc.taskLocks.Lock(taskID)
	defer unlock()

	var (
		task  *gormModels.Task
		round *gormModels.Round
		vote  gormModels.Vote
	)

	err := svc.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := svc.store.Tasks.WithTx(tx)
		votes := svc.store.Votes.WithTx(tx)

		var err error
		task, round, err = loadTaskWithRound(ctx, tasks, svc.store.Rounds.WithTx(tx), taskID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, svc.store.Rooms.WithTx(tx), round.RoomID, approverID); err != nil {
			return err
		}
		if task.CreatorID == approverID {
			return common.NewInvalidInput(constants.MsgCannotApproveOwn)
		}
		if !task.HasProof() {
			return common.NewConflict(constants.MsgNoProof)
		}
		if task.Approval != constants.ApprovalPending {
			return common.NewConflict(constants.MsgAlreadyDecided)
		}

		decision := constants.ApprovalRejected
		if approve {
			decision = constants.ApprovalApproved
		}
		decidedAt := svc.now()
		if err := tasks.Update(ctx, task.ID, map[string]interface{}{
			"approval":   decision,
			"decided_at": decidedAt,
		}); err != nil {
			return err
		}
		task.Approval = decision
		task.DecidedAt = &decidedAt

		vote = gormModels.Vote{
			RoundID: task.RoundID,
			TaskID:  task.ID,
			VoterID: approverID,
			Kind:    constants.VoteApproval,
			Value:   approve,
		}
		if err := votes.Create(ctx, &vote); err != nil {
			if isDuplicate(err) {
				return common.NewConflict(constants.MsgAlreadyVoted)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(err)
	}

	svc.metrics.TaskDecisions.WithLabelValues(string(task.Approval)).Inc()
	svc.metrics.VotesCast.WithLabelValues(string(constants.VoteApproval)).Inc()
	logging.Info("Task decided", "task_id", task.ID, "approver_id", approverID, "approval", task.Approval)

	resp := &dtos.ApproveTaskResponse{
		Task: svc.proofs.TaskResponse(*task),
		Vote: dtos.NewVoteResponse(vote),
	}

	svc.scores.Invalidate(round.ID)
	svc.publisher.Publish(round.RoomID, constants.EventTaskApproved, dtos.TaskApprovedEvent{
		Task:     resp.Task,
		Approved: approve,
	})
	publishLeaderboard(ctx, svc.scores, svc.publisher, round)
	return resp, nil
}

func (svc *TaskService) GetTask(ctx context.Context, taskID string) (*dtos.TaskResponse, error) {
	task, err := svc.store.Tasks.GetWithRound(ctx, taskID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if task == nil {
		return nil, common.NewNotFound(constants.MsgTaskNotFound)
	}
	resp := svc.proofs.TaskResponse(*task)
	return &resp, nil
}

// ListRoundTasks returns every task in a round, newest first.
func (svc *TaskService) ListRoundTasks(ctx context.Context, roundID string) ([]dtos.TaskResponse, error) {
	if err := svc.requireRound(ctx, roundID); err != nil {
		return nil, err
	}
	tasks, err := svc.store.Tasks.ListByRound(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return svc.proofs.TaskResponses(tasks), nil
}

// PendingApprovals lists tasks with proof awaiting a decision, oldest completion first.
func (svc *TaskService) PendingApprovals(ctx context.Context, roundID string) ([]dtos.TaskResponse, error) {
	if err := svc.requireRound(ctx, roundID); err != nil {
		return nil, err
	}
	tasks, err := svc.store.Tasks.ListPendingApproval(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return svc.proofs.TaskResponses(tasks), nil
}

func (svc *TaskService) requireRound(ctx context.Context, roundID string) error {
	round, err := svc.store.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return storeFailure(err)
	}
	if round == nil {
		return common.NewNotFound(constants.MsgRoundNotFound)
	}
	return nil
}

// loadTaskWithRound re-reads a task under a row lock together with its round.
func loadTaskWithRound(
	ctx context.Context,
	tasks *repositories.TaskRepository,
	rounds *repositories.RoundRepository,
	taskID string,
) (*gormModels.Task, *gormModels.Round, error) {
	task, err := tasks.GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, nil, storeFailure(err)
	}
	if task == nil {
		return nil, nil, common.NewNotFound(constants.MsgTaskNotFound)
	}

	round, err := rounds.GetByID(ctx, task.RoundID)
	if err != nil {
		return nil, nil, storeFailure(err)
	}
	if round == nil {
		return nil, nil, common.NewNotFound(constants.MsgRoundNotFound)
	}
	return task, round, nil
}

// publishLeaderboard pushes fresh standings for a round. Failures are logged, not returned:
// the mutation that triggered it has already committed.
func publishLeaderboard(ctx context.Context, scores *ScoreService, publisher Publisher, round *gormModels.Round) {
	standings, err := scores.ComputeStandings(ctx, round.ID)
	if err != nil {
		logging.Warn("Failed to compute standings for broadcast", "round_id", round.ID, "error", err.Error())
		return
	}
	publisher.Publish(round.RoomID, constants.EventLeaderboardUpdated, dtos.LeaderboardUpdatedEvent{
		RoundID: round.ID,
		Stats:   *standings,
	})
}
