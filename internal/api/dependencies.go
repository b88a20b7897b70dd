package api

import (
	"fmt"
	"time"

	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/config"
	"grindhouse/scoreboard/internal/db"
	"grindhouse/scoreboard/internal/db/repositories"
	"grindhouse/scoreboard/internal/logging"
	"grindhouse/scoreboard/internal/metrics"
	"grindhouse/scoreboard/internal/presence"
	"grindhouse/scoreboard/internal/realtime"
	"grindhouse/scoreboard/internal/services"
	"grindhouse/scoreboard/internal/storage"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const proofRoute = "/api/proofs/"

type Repositories struct {
	Rooms     *repositories.RoomRepository
	Rounds    *repositories.RoundRepository
	Tasks     *repositories.TaskRepository
	Votes     *repositories.VoteRepository
	Standings *repositories.StandingsRepository
}

type Services struct {
	Cache     common.CacheInterface
	Proofs    *services.ProofService
	Scores    *services.ScoreService
	Rooms     *services.RoomService
	Rounds    *services.RoundService
	Tasks     *services.TaskService
	Consensus *services.ConsensusService
	Presence  *presence.Registry
	Hub       *realtime.Hub
}

type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	ReadDB   *sqlx.DB
	Metrics  *metrics.MetricsRegistry
	Repo     *Repositories
	Services *Services
}

// InitDependencies opens the store, cache and blob storage named by cfg and wires every service.
func InitDependencies(cfg *config.Config) (*Dependencies, error) {
	gdb, err := db.InitORM(cfg)
	if err != nil {
		return nil, err
	}

	rdb, err := db.InitReadDB(cfg, gdb)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewFileStore(cfg.ProofDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open proof storage: %w", err)
	}

	var cache common.CacheInterface
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client := common.NewRedisClient(common.RedisOptions{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		cache = common.NewRedisCacheService(client, "scoreboard:")
	default:
		cache = common.NewCacheService(cfg.StandingsCacheTTL, 2*cfg.StandingsCacheTTL)
	}
	logging.Info("Cache backend selected", "backend", cfg.CacheBackend)

	return NewDependencies(cfg, gdb, rdb, cache, blobs, prometheus.DefaultRegisterer), nil
}

// NewDependencies wires services over already opened resources.
func NewDependencies(
	cfg *config.Config,
	gdb *gorm.DB,
	rdb *sqlx.DB,
	cache common.CacheInterface,
	blobs storage.BlobStore,
	reg prometheus.Registerer,
) *Dependencies {
	metricsReg := metrics.NewMetricsRegistry(reg)

	repos := &Repositories{
		Rooms:     repositories.NewRoomRepository(gdb),
		Rounds:    repositories.NewRoundRepository(gdb),
		Tasks:     repositories.NewTaskRepository(gdb),
		Votes:     repositories.NewVoteRepository(gdb),
		Standings: repositories.NewStandingsRepository(rdb),
	}

	registry := presence.NewRegistry(repos.Rooms, metricsReg.PresenceBindings)
	hub := realtime.NewHub(registry, metricsReg, opTimeout(cfg))
	publisher := hub.Router()

	// Rooms, rounds and task creation share one lock set; task mutations and flag votes use another.
	roomLocks := common.NewKeyedMutex()
	taskLocks := common.NewKeyedMutex()

	signer := common.NewURLSignerService([]byte(cfg.ProofSigningKey), proofRoute, cfg.ProofURLTTL)
	proofs := services.NewProofService(blobs, signer)
	scores := services.NewScoreService(repos.Standings, cache, cfg.StandingsCacheTTL, metricsReg)

	store := services.TaskStore{
		DB:     gdb,
		Rooms:  repos.Rooms,
		Rounds: repos.Rounds,
		Tasks:  repos.Tasks,
		Votes:  repos.Votes,
	}

	svcs := &Services{
		Cache:     cache,
		Proofs:    proofs,
		Scores:    scores,
		Rooms:     services.NewRoomService(gdb, repos.Rooms, roomLocks),
		Rounds:    services.NewRoundService(repos.Rooms, repos.Rounds, scores, publisher, metricsReg, roomLocks),
		Tasks:     services.NewTaskService(store, scores, proofs, publisher, metricsReg, roomLocks, taskLocks),
		Consensus: services.NewConsensusService(store, scores, proofs, publisher, metricsReg, taskLocks),
		Presence:  registry,
		Hub:       hub,
	}

	return &Dependencies{
		Config:   cfg,
		DB:       gdb,
		ReadDB:   rdb,
		Metrics:  metricsReg,
		Repo:     repos,
		Services: svcs,
	}
}

// Close releases the cache and database pools. Call after the HTTP server stops.
func (d *Dependencies) Close() {
	d.Services.Hub.Shutdown()

	if err := d.Services.Cache.Close(); err != nil {
		logging.Warn("Failed to close cache", "error", err.Error())
	}
	if d.Config.DBDriver == config.DriverPostgres && d.ReadDB != nil {
		if err := d.ReadDB.Close(); err != nil {
			logging.Warn("Failed to close read pool", "error", err.Error())
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// opTimeout bounds store calls made for websocket messages, which run outside any request.
func opTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 10 * time.Second
}
