package services

import (
	"context"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"gorm.io/gorm"
)

// ConsensusService handles flags on approved tasks and the quorum vote that settles them.
// It shares taskLocks with TaskService so approvals and votes on a task never interleave.
type ConsensusService struct {
	store     TaskStore
	scores    *ScoreService
	proofs    *ProofService
	publisher Publisher
	metrics   *metrics.MetricsRegistry
	taskLocks *common.KeyedMutex
}

func NewConsensusService(
	store TaskStore,
	scores *ScoreService,
	proofs *ProofService,
	publisher Publisher,
	metricsReg *metrics.MetricsRegistry,
	taskLocks *common.KeyedMutex,
) *ConsensusService {
	return &ConsensusService{
		store:     store,
		scores:    scores,
		proofs:    proofs,
		publisher: publisher,
		metrics:   metricsReg,
		taskLocks: taskLocks,
	}
}

// QuorumSize is the number of ballots needed to settle a flag: a strict majority of members.
func QuorumSize(totalMembers int64) int {
	return int(totalMembers/2) + 1
}

// Overturned reports whether invalid ballots form a strict majority of those cast.
func Overturned(invalid, cast int) bool {
	return float64(invalid) > float64(cast)/2
}

func tallyDTO(t repositories.FlagTally) dtos.FlagTally {
	return dtos.FlagTally{Total: t.Total, Valid: t.Valid(), Invalid: t.Invalid}
}

// FlagTask challenges an approved task. Each member may flag a task once.
func (svc *ConsensusService) FlagTask(ctx context.Context, taskID, flaggerID string) (*dtos.FlagTaskResponse, error) {
	unlock := svc.taskLocks.Lock(taskID)
	defer unlock()

	var (
		task  *gormModels.Task
		round *gormModels.Round
		tally repositories.FlagTally
	)

	err := svc.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := svc.store.Tasks.WithTx(tx)
		votes := svc.store.Votes.WithTx(tx)

		var err error
		task, round, err = loadTaskWithRound(ctx, tasks, svc.store.Rounds.WithTx(tx), taskID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, svc.store.Rooms.WithTx(tx), round.RoomID, flaggerID); err != nil {
			return err
		}
		if task.IsFlagFinalized() {
			return common.NewConflict(constants.MsgTaskFinalized)
		}
		if task.Approval != constants.ApprovalApproved {
			return common.NewConflict(constants.MsgOnlyApprovedFlagged)
		}

		flagged, err := votes.HasFlagged(ctx, task.ID, flaggerID)
		if err != nil {
			return err
		}
		if flagged {
			return common.NewConflict(constants.MsgAlreadyFlagged)
		}

		if err := votes.CreateFlag(ctx, &gormModels.TaskFlag{TaskID: task.ID, FlaggerID: flaggerID}); err != nil {
			if isDuplicate(err) {
				return common.NewConflict(constants.MsgAlreadyFlagged)
			}
			return err
		}
		if err := tasks.IncrementFlagged(ctx, task.ID); err != nil {
			return err
		}
		task.FlaggedCount++

		tally, err = votes.TallyFlagVotes(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, storeFailure(err)
	}

	logging.Info("Task flagged", "task_id", task.ID, "flagger_id", flaggerID, "flagged_count", task.FlaggedCount)

	taskResp := svc.proofs.TaskResponse(*task)
	svc.scores.Invalidate(round.ID)
	svc.publisher.Publish(round.RoomID, constants.EventTaskFlagged, dtos.TaskFlaggedEvent{
		Task:         taskResp,
		FlaggedCount: task.FlaggedCount,
		FlagVotes:    tallyDTO(tally),
	})

	return &dtos.FlagTaskResponse{Task: taskResp, FlaggedCount: task.FlaggedCount}, nil
}

// CastFlagVote records one member's verdict on a flagged task. When the ballots
// reach a majority of the room's members the dispute is finalized: a majority of
// invalid ballots rejects the task and zeroes its points, anything else upholds it.
func (svc *ConsensusService) CastFlagVote(ctx context.Context, taskID, voterID string, valid bool) (*dtos.FlagVoteResponse, error) {
	unlock := svc.taskLocks.Lock(taskID)
	defer unlock()

	var (
		task     *gormModels.Task
		round    *gormModels.Round
		vote     gormModels.Vote
		tally    repositories.FlagTally
		finalize bool
	)

	err := svc.store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := svc.store.Tasks.WithTx(tx)
		votes := svc.store.Votes.WithTx(tx)
		rooms := svc.store.Rooms.WithTx(tx)

		var err error
		task, round, err = loadTaskWithRound(ctx, tasks, svc.store.Rounds.WithTx(tx), taskID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, rooms, round.RoomID, voterID); err != nil {
			return err
		}
		if task.IsFlagFinalized() {
			return common.NewConflict(constants.MsgTaskFinalized)
		}
		if task.FlaggedCount == 0 {
			return common.NewConflict(constants.MsgNotFlagged)
		}
		if task.Approval != constants.ApprovalApproved {
			return common.NewConflict(constants.MsgOnlyApprovedFlagged)
		}

		voted, err := votes.HasVoted(ctx, task.ID, voterID, constants.VoteFlagValidation)
		if err != nil {
			return err
		}
		if voted {
			return common.NewConflict(constants.MsgAlreadyVoted)
		}

		vote = gormModels.Vote{
			RoundID: task.RoundID,
			TaskID:  task.ID,
			VoterID: voterID,
			Kind:    constants.VoteFlagValidation,
			Value:   valid,
		}
		if err := votes.Create(ctx, &vote); err != nil {
			if isDuplicate(err) {
				return common.NewConflict(constants.MsgAlreadyVoted)
			}
			return err
		}

		totalMembers, err := rooms.CountMembers(ctx, round.RoomID)
		if err != nil {
			return err
		}
		tally, err = votes.TallyFlagVotes(ctx, task.ID)
		if err != nil {
			return err
		}

		if tally.Total < QuorumSize(totalMembers) {
			return nil
		}

		finalize = true
		fields := map[string]interface{}{"flag_verdict": constants.FlagVerdictUpheld}
		task.FlagVerdict = constants.FlagVerdictUpheld
		if Overturned(tally.Invalid, tally.Total) {
			fields["flag_verdict"] = constants.FlagVerdictOverturned
			fields["approval"] = constants.ApprovalRejected
			fields["points"] = 0
			task.FlagVerdict = constants.FlagVerdictOverturned
			task.Approval = constants.ApprovalRejected
			task.Points = 0
		}
		return tasks.Update(ctx, task.ID, fields)
	})
	if err != nil {
		return nil, storeFailure(err)
	}

	svc.metrics.VotesCast.WithLabelValues(string(constants.VoteFlagValidation)).Inc()
	if finalize {
		svc.metrics.FlagVerdicts.WithLabelValues(string(task.FlagVerdict)).Inc()
		logging.Info("Flag quorum reached",
			"task_id", task.ID,
			"verdict", task.FlagVerdict,
			"votes", tally.Total,
			"invalid", tally.Invalid,
		)
	}

	taskResp := svc.proofs.TaskResponse(*task)
	resp := &dtos.FlagVoteResponse{
		Task:      taskResp,
		Vote:      dtos.NewVoteResponse(vote),
		FlagVotes: tallyDTO(tally),
		Finalized: finalize,
	}

	svc.scores.Invalidate(round.ID)
	svc.publisher.Publish(round.RoomID, constants.EventTaskFlagged, dtos.TaskFlaggedEvent{
		Task:         taskResp,
		FlaggedCount: task.FlaggedCount,
		FlagVotes:    resp.FlagVotes,
		Finalized:    finalize,
	})
	if task.FlagVerdict == constants.FlagVerdictOverturned {
		svc.publisher.Publish(round.RoomID, constants.EventTaskApproved, dtos.TaskApprovedEvent{
			Task:     taskResp,
			Approved: false,
		})
		publishLeaderboard(ctx, svc.scores, svc.publisher, round)
	}
	return resp, nil
}

// FlaggedTasks lists approved tasks carrying flags, most flagged first, with ballot tallies.
func (svc *ConsensusService) FlaggedTasks(ctx context.Context, roundID string) ([]dtos.FlaggedTaskResponse, error) {
	round, err := svc.store.Rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if round == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}

	tasks, err := svc.store.Tasks.ListFlagged(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	tallies, err := svc.store.Votes.TallyFlagVotesFor(ctx, ids)
	if err != nil {
		return nil, storeFailure(err)
	}

	out := make([]dtos.FlaggedTaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, dtos.FlaggedTaskResponse{
			TaskResponse: svc.proofs.TaskResponse(t),
			FlagVotes:    tallyDTO(tallies[t.ID]),
		})
	}
	return out, nil
}
