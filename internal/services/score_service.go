package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/constants"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/models/dtos"

	"golang.org/x/sync/singleflight"
)

// ScoreService projects round standings from approved tasks. Results are cached
// per round. Every Invalidate advances a single epoch, and a fill only stores
// its result if the epoch is unchanged, so an in-flight fill never repopulates
// the cache with standings older than the latest mutation.
type ScoreService struct {
	standings *repositories.StandingsRepository
	cache     common.CacheInterface
	ttl       time.Duration
	metrics   *metrics.MetricsRegistry

	group singleflight.Group
	epoch atomic.Uint64
}

func NewScoreService(
	standings *repositories.StandingsRepository,
	cache common.CacheInterface,
	ttl time.Duration,
	metricsReg *metrics.MetricsRegistry,
) *ScoreService {
	return &ScoreService{
		standings: standings,
		cache:     cache,
		ttl:       ttl,
		metrics:   metricsReg,
	}
}

func cacheKey(roundID string) string {
	return string(constants.CachePrefixStandings) + roundID
}

// Invalidate drops cached standings for a round. Call it before broadcasting a task mutation.
func (s *ScoreService) Invalidate(roundID string) {
	s.epoch.Add(1)
	s.cache.Delete(cacheKey(roundID))
}

// ComputeStandings returns the leaderboard for a round.
func (s *ScoreService) ComputeStandings(ctx context.Context, roundID string) (*dtos.RoundStandings, error) {
	key := cacheKey(roundID)
	if raw, ok := s.cache.Get(key); ok {
		var cached dtos.RoundStandings
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.metrics.CacheHitsTotal.WithLabelValues(string(constants.CachePrefixStandings)).Inc()
			return &cached, nil
		}
		logging.Warn("Discarding undecodable standings cache entry", "round_id", roundID)
	}
	s.metrics.CacheMissesTotal.WithLabelValues(string(constants.CachePrefixStandings)).Inc()

	epoch := s.epoch.Load()
	v, err, _ := s.group.Do(fmt.Sprintf("%s:%d", roundID, epoch), func() (interface{}, error) {
		return s.fill(ctx, roundID, epoch)
	})
	if err != nil {
		return nil, err
	}

	// Callers may mutate their copy.
	shared := v.(*dtos.RoundStandings)
	out := *shared
	out.Leaderboard = append([]dtos.LeaderboardEntry(nil), shared.Leaderboard...)
	return &out, nil
}

// fill loads standings and caches them unless an invalidation landed after epoch was read.
func (s *ScoreService) fill(ctx context.Context, roundID string, epoch uint64) (*dtos.RoundStandings, error) {
	standings, err := s.load(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(standings); err == nil && s.epoch.Load() == epoch {
		s.cache.Set(cacheKey(roundID), raw, s.ttl)
	}
	return standings, nil
}

func (s *ScoreService) load(ctx context.Context, roundID string) (*dtos.RoundStandings, error) {
	exists, err := s.standings.RoundExists(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !exists {
		return nil, common.NewNotFound(constants.MsgRoundNotFound)
	}

	rows, err := s.standings.ApprovedTasks(ctx, roundID)
	if err != nil {
		return nil, storeFailure(err)
	}

	return BuildStandings(rows), nil
}

// BuildStandings folds approved tasks, given in decision order, into a ranked leaderboard.
// Ties on total go to the user whose first approved task was decided earlier.
func BuildStandings(rows []repositories.ScoredTask) *dtos.RoundStandings {
	type acc struct {
		entry     dtos.LeaderboardEntry
		firstSeen int
	}

	byUser := make(map[string]*acc)
	order := make([]*acc, 0)
	var awarded float64

	for i, row := range rows {
		score := float64(row.Points) * row.DifficultyMultiplier
		awarded += score

		a, ok := byUser[row.CreatorID]
		if !ok {
			a = &acc{
				entry: dtos.LeaderboardEntry{
					UserID:     row.CreatorID,
					UserName:   row.UserName,
					UserAvatar: row.UserAvatar,
				},
				firstSeen: i,
			}
			byUser[row.CreatorID] = a
			order = append(order, a)
		}
		a.entry.TotalPoints += score
		a.entry.TaskCount++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].entry.TotalPoints != order[j].entry.TotalPoints {
			return order[i].entry.TotalPoints > order[j].entry.TotalPoints
		}
		return order[i].firstSeen < order[j].firstSeen
	})

	board := make([]dtos.LeaderboardEntry, 0, len(order))
	for i, a := range order {
		a.entry.Rank = i + 1
		board = append(board, a.entry)
	}

	return &dtos.RoundStandings{
		Leaderboard:        board,
		TotalTasks:         len(rows),
		TotalPointsAwarded: awarded,
	}
}
