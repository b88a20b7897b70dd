package services

import (
	"context"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	gormModels "grindhouse/scoreboard/internal/models/gorm"
)

type StartRoundInput struct {
	RoomID  string
	UserID  string
	StartAt string
	EndAt   string
	Stakes  string
}

// RoundService runs the per-room round state machine. A room has at most one
// active round; starts and ends for the same room are serialized.
type RoundService struct {
	rooms     *repositories.RoomRepository
	rounds    *repositories.RoundRepository
	scores    *ScoreService
	publisher Publisher
	metrics   *metrics.MetricsRegistry
	roomLocks *common.KeyedMutex
	now       func() time.Time
}

func NewRoundService(
	rooms *repositories.RoomRepository,
	rounds *repositories.RoundRepository,
	scores *ScoreService,
	publisher Publisher,
	metricsReg *metrics.MetricsRegistry,
	roomLocks *common.KeyedMutex,
) *RoundService {
	return &RoundService{
		rooms:     rooms,
		rounds:    rounds,
		scores:    scores,
		publisher: publisher,
		metrics:   metricsReg,
		roomLocks: roomLocks,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartRound opens a new active round in a room.
func (svc *RoundService) StartRound(ctx context.Context, in StartRoundInput) (*gormModels.Round, error) {
	room, err := svc.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if room == nil {
		return nil, common.NewNotFound(constants.MsgRoomNotFound)
	}

	if err := requireMember(ctx, svc.rooms, room.ID, in.UserID); err != nil {
		return nil, err
	}

	unlock := svc.roomLocks.Lock(room.ID)
	defer unlock()

	active, err := svc.rounds.GetActiveByRoom(ctx, room.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if active != nil {
		return nil, common.NewConflict(constants.MsgRoundAlreadyActive)
	}

	now := svc.now()
	startAt, err := common.ParseOptionalTime(in.StartAt, now)
	if err != nil {
		return nil, common.NewInvalidInput(constants.MsgInvalidDateFormat)
	}
	endAt, err := common.ParseOptionalTime(in.EndAt, now.Add(constants.DefaultRoundLength))
	if err != nil {
		return nil, common.NewInvalidInput(constants.MsgInvalidDateFormat)
	}
	if !endAt.After(startAt) {
		return nil, common.NewInvalidInput(constants.MsgInvalidRoundWindow)
	}

	round := gormModels.Round{
		RoomID:  room.ID,
		StartAt: startAt,
		EndAt:   endAt,
		Stakes:  in.Stakes,
		Status:  constants.RoundActive,
	}
	if err := svc.rounds.Create(ctx, &round); err != nil {
		if isDuplicate(err) {
			return nil, common.NewConflict(constants.MsgRoundAlreadyActive)
		}
		return nil, storeFailure(err)
	}

	svc.metrics.RoundsStarted.Inc()
	logging.Info("Round started", "room_id", room.ID, "round_id", round.ID, "end_at", endAt)

	svc.publisher.Publish(room.ID, constants.EventRoundStarted, dtos.NewRoundResponse(round))
	return &round, nil
}

// EndRound completes an active round and publishes its final standings.
// Ending a round that is no longer active is a Conflict and changes nothing.
func (svc *RoundService) EndRound(ctx context.Context, roundID, userID string) (*dtos.EndRoundResponse, error) {
	round, err := svc.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if round == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}

	if err := requireMember(ctx, svc.rooms, round.RoomID, userID); err != nil {
		return nil, err
	}

	return svc.complete(ctx, round, svc.now(), "manual")
}

// ExpireOverdueRounds completes every active round whose end time has passed.
// It returns how many rounds it closed.
func (svc *RoundService) ExpireOverdueRounds(ctx context.Context, now time.Time) (int, error) {
	overdue, err := svc.rounds.ListOverdue(ctx, now)
	if err != nil {
		return 0, storeFailure(err)
	}

	closed := 0
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			return closed, err
		}
		round := overdue[i]
		if _, err := svc.complete(ctx, &round, round.EndAt, "expired"); err != nil {
			if common.IsKind(err, common.KindConflict) {
				continue
			}
			return closed, err
		}
		closed++
	}
	return closed, nil
}

func (svc *RoundService) complete(ctx context.Context, round *gormModels.Round, endAt time.Time, trigger string) (*dtos.EndRoundResponse, error) {
	unlock := svc.roomLocks.Lock(round.RoomID)
	defer unlock()

	ok, err := svc.rounds.Complete(ctx, round.ID, endAt)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !ok {
		return nil, common.NewConflict(constants.MsgRoundNotActive)
	}

	ended, err := svc.rounds.GetByID(ctx, round.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if ended == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}

	svc.scores.Invalidate(round.ID)
	// The round is already committed; a failed read must not hide the end.
	standings, err := svc.scores.ComputeStandings(ctx, round.ID)
	if err != nil {
		logging.Error("Failed to compute final standings", "round_id", round.ID, "error", err.Error())
		standings = &dtos.RoundStandings{Leaderboard: []dtos.LeaderboardEntry{}}
	}

	svc.metrics.RoundsEnded.WithLabelValues(trigger).Inc()
	logging.Info("Round ended",
		"room_id", ended.RoomID,
		"round_id", ended.ID,
		"trigger", trigger,
		"tasks", standings.TotalTasks,
	)

	resp := &dtos.EndRoundResponse{
		Round:      dtos.NewRoundResponse(*ended),
		FinalStats: *standings,
	}
	svc.publisher.Publish(ended.RoomID, constants.EventRoundEnded, resp)
	return resp, nil
}

func (svc *RoundService) GetRound(ctx context.Context, roundID string) (*gormModels.Round, error) {
	round, err := svc.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if round == nil {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}
	return round, nil
}

// ListRoomRounds returns a room's rounds, newest first.
func (svc *RoundService) ListRoomRounds(ctx context.Context, roomID string) ([]gormModels.Round, error) {
	if err := svc.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	rounds, err := svc.rounds.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return rounds, nil
}

// GetActiveRound returns the room's active round, or nil when there is none.
func (svc *RoundService) GetActiveRound(ctx context.Context, roomID string) (*gormModels.Round, error) {
	if err := svc.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	round, err := svc.rounds.GetActiveByRoom(ctx, roomID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return round, nil
}

func (svc *RoundService) requireRoom(ctx context.Context, roomID string) error {
	room, err := svc.rooms.GetByID(ctx, roomID)
	if err != nil {
		return storeFailure(err)
	}
	if room == nil {
		return common.NewNotFound(constants.MsgRoomNotFound)
	}
	return nil
}
