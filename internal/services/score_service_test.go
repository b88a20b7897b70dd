package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/metrics"
	gormModels "grindhouse/scoreboard/internal/models/gorm"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStandings_Ordering(t *testing.T) {
	rows := []repositories.ScoredTask{
		{TaskID: "t1", CreatorID: "u-twenty", UserName: "Ada", Points: 10, DifficultyMultiplier: 2.0},
		{TaskID: "t2", CreatorID: "u-thirty", UserName: "Grace", Points: 30, DifficultyMultiplier: 1.0},
	}

	got := BuildStandings(rows)

	require.Len(t, got.Leaderboard, 2)
	assert.Equal(t, "u-thirty", got.Leaderboard[0].UserID)
	assert.Equal(t, 30.0, got.Leaderboard[0].TotalPoints)
	assert.Equal(t, 1, got.Leaderboard[0].Rank)
	assert.Equal(t, "u-twenty", got.Leaderboard[1].UserID)
	assert.Equal(t, 20.0, got.Leaderboard[1].TotalPoints)
	assert.Equal(t, 2, got.Leaderboard[1].Rank)
	assert.Equal(t, 2, got.TotalTasks)
	assert.Equal(t, 50.0, got.TotalPointsAwarded)
}

func TestBuildStandings_TieGoesToEarlierApproval(t *testing.T) {
	rows := []repositories.ScoredTask{
		{TaskID: "t1", CreatorID: "early", Points: 10, DifficultyMultiplier: 1},
		{TaskID: "t2", CreatorID: "late", Points: 20, DifficultyMultiplier: 1},
		{TaskID: "t3", CreatorID: "early", Points: 10, DifficultyMultiplier: 1},
	}

	got := BuildStandings(rows)

	require.Len(t, got.Leaderboard, 2)
	assert.Equal(t, "early", got.Leaderboard[0].UserID)
	assert.Equal(t, 2, got.Leaderboard[0].TaskCount)
	assert.Equal(t, "late", got.Leaderboard[1].UserID)
	assert.Equal(t, 2, got.Leaderboard[1].Rank)
}

func TestScoreService_ComputeStandings_FromStore(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	roomID, users := env.newRoom(t, "Ada", "Grace", "Linus")
	roundID := env.startRound(t, roomID, users[0])

	decided := time.Now().UTC()
	insert := func(creator string, points int, mult float64, approval constants.ApprovalState, offset time.Duration) {
		at := decided.Add(offset)
		require.NoError(t, env.db.Create(&gormModels.Task{
			RoundID:              roundID,
			CreatorID:            creator,
			Template:             constants.TemplateQualitative,
			Title:                "seeded",
			Approval:             approval,
			Points:               points,
			DifficultyMultiplier: mult,
			ProofURL:             "seed",
			DecidedAt:            &at,
		}).Error)
	}
	insert(users[0], 10, 2.0, constants.ApprovalApproved, 0)
	insert(users[1], 30, 1.0, constants.ApprovalApproved, time.Second)
	insert(users[2], 500, 1.0, constants.ApprovalRejected, 2*time.Second)
	insert(users[2], 500, 1.0, constants.ApprovalPending, 3*time.Second)

	standings, err := env.scores.ComputeStandings(ctx, roundID)
	require.NoError(t, err)

	require.Len(t, standings.Leaderboard, 2)
	assert.Equal(t, users[1], standings.Leaderboard[0].UserID)
	assert.Equal(t, "Grace", standings.Leaderboard[0].UserName)
	assert.Equal(t, 30.0, standings.Leaderboard[0].TotalPoints)
	assert.Equal(t, users[0], standings.Leaderboard[1].UserID)
	assert.Equal(t, 20.0, standings.Leaderboard[1].TotalPoints)
	assert.Equal(t, 2, standings.TotalTasks)

	_, err = env.scores.ComputeStandings(ctx, "missing")
	requireKind(t, err, common.KindNotFound)
}

func TestScoreService_CacheInvalidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	roomID, users := env.newRoom(t, "Ada", "Grace")
	roundID := env.startRound(t, roomID, users[0])

	empty, err := env.scores.ComputeStandings(ctx, roundID)
	require.NoError(t, err)
	assert.Empty(t, empty.Leaderboard)

	// Approval invalidates the cached empty board before broadcasting.
	env.approvedTask(t, roundID, users[0], users[1], constants.TemplateQualitative, 0, 1)

	fresh, err := env.scores.ComputeStandings(ctx, roundID)
	require.NoError(t, err)
	require.Len(t, fresh.Leaderboard, 1)
	assert.Equal(t, 25.0, fresh.Leaderboard[0].TotalPoints)

	// Mutating a returned copy never leaks into the cache.
	fresh.Leaderboard[0].TotalPoints = 9999
	again, err := env.scores.ComputeStandings(ctx, roundID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, again.Leaderboard[0].TotalPoints)
}

// countingCache records how many entries were stored.
type countingCache struct {
	common.CacheInterface
	sets atomic.Int32
}

func (c *countingCache) Set(key string, value []byte, duration time.Duration) {
	c.sets.Add(1)
	c.CacheInterface.Set(key, value, duration)
}

func newCountingScoreService(t *testing.T, env *testEnv) (*ScoreService, *countingCache) {
	t.Helper()
	rdb, err := db.WrapGorm(env.db, "sqlite3")
	require.NoError(t, err)

	cache := &countingCache{CacheInterface: common.NewCacheService(time.Minute, time.Minute)}
	svc := NewScoreService(
		repositories.NewStandingsRepository(rdb),
		cache,
		time.Minute,
		metrics.NewMetricsRegistry(prometheus.NewRegistry()),
	)
	return svc, cache
}

func TestScoreService_ManyInvalidationsKeepCaching(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	roomID, users := env.newRoom(t, "Ada")
	roundID := env.startRound(t, roomID, users[0])
	svc, cache := newCountingScoreService(t, env)

	for i := 0; i < 1000; i++ {
		svc.Invalidate(fmt.Sprintf("gone-%d", i))
	}

	_, err := svc.ComputeStandings(ctx, roundID)
	require.NoError(t, err)
	_, err = svc.ComputeStandings(ctx, roundID)
	require.NoError(t, err)

	assert.Equal(t, int32(1), cache.sets.Load())
	assert.Equal(t, uint64(1000), svc.epoch.Load())
}

func TestScoreService_FillSkipsCacheAfterInvalidate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	roomID, users := env.newRoom(t, "Ada")
	roundID := env.startRound(t, roomID, users[0])
	svc, cache := newCountingScoreService(t, env)

	epoch := svc.epoch.Load()
	svc.Invalidate(roundID)

	standings, err := svc.fill(ctx, roundID, epoch)
	require.NoError(t, err)
	assert.Empty(t, standings.Leaderboard)
	assert.Equal(t, int32(0), cache.sets.Load())

	_, err = svc.fill(ctx, roundID, svc.epoch.Load())
	require.NoError(t, err)
	assert.Equal(t, int32(1), cache.sets.Load())
}
