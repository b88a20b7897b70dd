package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"grindhouse/scoreboard/internal/db"
	"grindhouse/scoreboard/internal/models/entities"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /healthCheck
func (h *Handlers) HealthCheck(upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		dbStatus := "ok"
		dbDetails := h.deps.Config.DBDriver + " connected"
		if err := db.Ping(ctx, h.deps.DB, h.deps.ReadDB); err != nil {
			dbStatus = "down"
			dbDetails = err.Error()
		}
		services["database"] = entities.ServiceStatus{
			Status:  dbStatus,
			Details: dbDetails,
		}

		cacheStatus := entities.ServiceStatus{Status: "ok", Details: "in-memory"}
		if p, ok := h.deps.Services.Cache.(pinger); ok {
			cacheStatus.Details = "redis connected"
			if err := p.Ping(ctx); err != nil {
				cacheStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
			}
		}
		services["cache"] = cacheStatus

		overallStatus := "ok"
		code := http.StatusOK
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				code = http.StatusServiceUnavailable
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services:    services,
			Status:      overallStatus,
			UpSince:     upSince,
			Uptime:      time.Since(upSince).Round(time.Second).String(),
			Connections: h.deps.Services.Hub.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
