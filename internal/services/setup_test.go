package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"
	"grindhouse/scoreboard/internal/storage"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	RoomID  string
	Kind    constants.EventKind
	Payload any
}

// recordingPublisher captures every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(roomID string, kind constants.EventKind, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoomID: roomID, Kind: kind, Payload: payload})
}

func (p *recordingPublisher) kinds() []constants.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]constants.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

func (p *recordingPublisher) last(kind constants.EventKind) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Kind == kind {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

type testEnv struct {
	db        *gorm.DB
	publisher *recordingPublisher
	rooms     *RoomService
	rounds    *RoundService
	tasks     *TaskService
	consensus *ConsensusService
	scores    *ScoreService
	proofs    *ProofService
}

// setupTestDB opens a private shared-cache in-memory SQLite database so that the
// GORM pool and the sqlx read model see the same data.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := setupTestDB(t)
	rdb, err := db.WrapGorm(gdb, "sqlite3")
	require.NoError(t, err)

	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	metricsReg := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	publisher := &recordingPublisher{}

	roomRepo := repositories.NewRoomRepository(gdb)
	roundRepo := repositories.NewRoundRepository(gdb)
	store := TaskStore{
		DB:     gdb,
		Rooms:  roomRepo,
		Rounds: roundRepo,
		Tasks:  repositories.NewTaskRepository(gdb),
		Votes:  repositories.NewVoteRepository(gdb),
	}

	roomLocks := common.NewKeyedMutex()
	taskLocks := common.NewKeyedMutex()

	scores := NewScoreService(
		repositories.NewStandingsRepository(rdb),
		common.NewCacheService(time.Minute, time.Minute),
		time.Minute,
		metricsReg,
	)
	proofs := NewProofService(blobs, common.NewURLSignerService([]byte("test-key"), "/api/proofs/", time.Minute))

	return &testEnv{
		db:        gdb,
		publisher: publisher,
		rooms:     NewRoomService(gdb, roomRepo, roomLocks),
		rounds:    NewRoundService(roomRepo, roundRepo, scores, publisher, metricsReg, roomLocks),
		tasks:     NewTaskService(store, scores, proofs, publisher, metricsReg, roomLocks, taskLocks),
		consensus: NewConsensusService(store, scores, proofs, publisher, metricsReg, taskLocks),
		scores:    scores,
		proofs:    proofs,
	}
}

// newRoom creates a room whose host is the first member and joins the remaining names.
// It returns the room id and the user ids in the order given.
func (e *testEnv) newRoom(t *testing.T, host string, others ...string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	session, err := e.rooms.CreateRoom(ctx, CreateRoomInput{Name: "Study Hall", CreatorName: host})
	require.NoError(t, err)

	ids := []string{session.User.ID}
	for _, name := range others {
		joined, err := e.rooms.JoinRoom(ctx, JoinRoomInput{Code: session.Code, Name: name})
		require.NoError(t, err)
		ids = append(ids, joined.User.ID)
	}
	return session.Room.ID, ids
}

func (e *testEnv) startRound(t *testing.T, roomID, userID string) string {
	t.Helper()
	round, err := e.rounds.StartRound(context.Background(), StartRoundInput{RoomID: roomID, UserID: userID})
	require.NoError(t, err)
	return round.ID
}

// approvedTask runs a task through create, proof and approval.
func (e *testEnv) approvedTask(t *testing.T, roundID, creatorID, approverID string, template constants.TaskTemplate, target int, mult float64) *dtos.TaskResponse {
	t.Helper()
	ctx := context.Background()

	task, err := e.tasks.CreateTask(ctx, CreateTaskInput{
		RoundID:              roundID,
		CreatorID:            creatorID,
		Template:             string(template),
		Title:                "Deep work",
		Target:               target,
		DifficultyMultiplier: &mult,
	})
	require.NoError(t, err)

	_, err = e.tasks.AttachProof(ctx, AttachProofInput{TaskID: task.ID, ProofURL: "https://example.com/proof"})
	require.NoError(t, err)

	approved, err := e.tasks.ApproveTask(ctx, task.ID, approverID, true)
	require.NoError(t, err)
	return &approved.Task
}

func requireKind(t *testing.T, err error, kind common.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, common.KindOf(err), "unexpected error: %v", err)
}
