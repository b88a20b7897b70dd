package routes

import (
	"grindhouse/scoreboard/internal/api"
	"grindhouse/scoreboard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all game routes under /api
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, limiter *middleware.RateLimiter) {
	r.Route("/api", func(game chi.Router) {
		game.Use(limiter.Middleware)

		game.Route("/rooms", func(rooms chi.Router) {
			rooms.Post("/", handlers.CreateRoom())
			rooms.Post("/join", handlers.JoinRoom())
			rooms.Get("/code/{code}", handlers.GetRoomByCode())

			rooms.Route("/{roomID}", func(room chi.Router) {
				room.Get("/", handlers.GetRoom())
				room.Get("/members", handlers.ListMembers())
				room.Get("/rounds", handlers.ListRoomRounds())
				room.Get("/active-round", handlers.GetActiveRound())
				room.Get("/presence", handlers.GetRoomPresence())
			})
		})

		game.Route("/rounds", func(rounds chi.Router) {
			rounds.Post("/", handlers.StartRound())

			rounds.Route("/{roundID}", func(round chi.Router) {
				round.Get("/", handlers.GetRound())
				round.Post("/end", handlers.EndRound())
				round.Get("/stats", handlers.GetRoundStats())
				round.Post("/tasks", handlers.CreateTask())
				round.Get("/tasks", handlers.ListRoundTasks())
				round.Get("/pending-approvals", handlers.PendingApprovals())
				round.Get("/flagged-tasks", handlers.FlaggedTasks())
			})
		})

		game.Route("/tasks/{taskID}", func(task chi.Router) {
			task.Post("/proof", handlers.AttachProof())
			task.Post("/approve", handlers.ApproveTask())
			task.Post("/flag", handlers.FlagTask())
			task.Post("/vote", handlers.CastFlagVote())
		})

		game.Get("/proofs/{key}", handlers.GetProof())
	})
}
