package routes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grindhouse/scoreboard/internal/api"
	"grindhouse/scoreboard/internal/common"
	"grindhouse/scoreboard/internal/config"
	"grindhouse/scoreboard/internal/db"
	"grindhouse/scoreboard/internal/storage"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status    string          `json:"status"`
	Message   string          `json:"message"`
	ErrorKind string          `json:"error_kind"`
	Data      json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	gdb, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	rdb, err := db.WrapGorm(gdb, "sqlite3")
	require.NoError(t, err)

	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:            "test",
		DBDriver:          config.DriverSQLite,
		CacheBackend:      config.CacheMemory,
		StandingsCacheTTL: time.Minute,
		ProofSigningKey:   "test-signing-key",
		ProofURLTTL:       time.Minute,
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		CORSOrigins:       []string{"*"},
		MaxBodyBytes:      64 << 10,
		RequestTimeout:    5 * time.Second,
	}

	deps := api.NewDependencies(cfg, gdb, rdb, common.NewCacheService(time.Minute, time.Minute), blobs, prometheus.NewRegistry())
	t.Cleanup(deps.Close)

	return RegisterRoutes(deps, time.Now())
}

func call(t *testing.T, h http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type idOnly struct {
	ID string `json:"id"`
}

type session struct {
	Room idOnly `json:"room"`
	User idOnly `json:"user"`
	Code string `json:"code"`
}

func TestRoutes_GameFlow(t *testing.T) {
	h := setupRouter(t)

	code, res := call(t, h, http.MethodPost, "/api/rooms", map[string]string{"name": "Deep Work", "creator_name": "Ada"})
	require.Equal(t, http.StatusCreated, code, res.Message)
	host := decode[session](t, res.Data)
	require.Len(t, host.Code, 6)

	code, res = call(t, h, http.MethodPost, "/api/rooms/join", map[string]string{"code": strings.ToLower(host.Code), "name": "Grace"})
	require.Equal(t, http.StatusOK, code, res.Message)
	guest := decode[session](t, res.Data)
	assert.Equal(t, host.Room.ID, guest.Room.ID)

	code, res = call(t, h, http.MethodPost, "/api/rooms/join", map[string]string{"code": host.Code, "name": "Ada"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", res.ErrorKind)

	code, res = call(t, h, http.MethodPost, "/api/rounds", map[string]string{"room_id": host.Room.ID, "user_id": host.User.ID})
	require.Equal(t, http.StatusCreated, code, res.Message)
	round := decode[idOnly](t, res.Data)

	code, res = call(t, h, http.MethodGet, "/api/rooms/"+host.Room.ID+"/active-round", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, round.ID, decode[idOnly](t, res.Data).ID)

	code, res = call(t, h, http.MethodPost, "/api/rounds/"+round.ID+"/tasks", map[string]any{
		"creator_id":            guest.User.ID,
		"template":              "time-boxed",
		"title":                 "Write the report",
		"target":                60,
		"difficulty_multiplier": 1.5,
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	task := decode[struct {
		ID     string `json:"id"`
		Points int    `json:"points"`
	}](t, res.Data)
	assert.Equal(t, 195, task.Points)

	shot := []byte("\x89PNG not really")
	code, res = call(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/proof", map[string]string{
		"proof_type": "screenshot",
		"proof_data": "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot),
	})
	require.Equal(t, http.StatusOK, code, res.Message)
	proofURL := decode[struct {
		ProofURL string `json:"proof_url"`
	}](t, res.Data).ProofURL
	require.True(t, strings.HasPrefix(proofURL, "/api/proofs/"), proofURL)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, proofURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, shot, rec.Body.Bytes())

	tampered := proofURL[:strings.Index(proofURL, "?")] + "?token=bogus"
	code, res = call(t, h, http.MethodGet, tampered, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", res.ErrorKind)

	code, res = call(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/approve", map[string]any{"approver_id": guest.User.ID, "approve": true})
	assert.Equal(t, http.StatusBadRequest, code, res.Message)

	code, res = call(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/approve", map[string]any{"approver_id": host.User.ID, "approve": true})
	require.Equal(t, http.StatusOK, code, res.Message)

	code, res = call(t, h, http.MethodGet, "/api/rounds/"+round.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, code, res.Message)
	stats := decode[struct {
		Stats struct {
			Leaderboard []struct {
				UserID      string  `json:"user_id"`
				TotalPoints float64 `json:"total_points"`
				Rank        int     `json:"rank"`
			} `json:"leaderboard"`
			TotalTasks int `json:"total_tasks"`
		} `json:"stats"`
	}](t, res.Data)
	require.Len(t, stats.Stats.Leaderboard, 1)
	assert.Equal(t, guest.User.ID, stats.Stats.Leaderboard[0].UserID)
	assert.InDelta(t, 292.5, stats.Stats.Leaderboard[0].TotalPoints, 1e-9)
	assert.Equal(t, 1, stats.Stats.Leaderboard[0].Rank)
	assert.Equal(t, 1, stats.Stats.TotalTasks)

	code, res = call(t, h, http.MethodPost, "/api/rounds/"+round.ID+"/end", map[string]string{"user_id": host.User.ID})
	require.Equal(t, http.StatusOK, code, res.Message)

	code, res = call(t, h, http.MethodPost, "/api/rounds/"+round.ID+"/end", map[string]string{"user_id": host.User.ID})
	assert.Equal(t, http.StatusConflict, code)

	code, res = call(t, h, http.MethodGet, "/api/rooms/"+host.Room.ID+"/active-round", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, res.Data)
}

func TestRoutes_Errors(t *testing.T) {
	h := setupRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantKind string
	}{
		{"unknown route", http.MethodGet, "/api/nowhere", nil, http.StatusNotFound, "not_found"},
		{"malformed body", http.MethodPost, "/api/rounds", "{not json", http.StatusBadRequest, "invalid_input"},
		{"unknown room", http.MethodGet, "/api/rooms/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
		{"unknown code", http.MethodGet, "/api/rooms/code/ZZZZZZ", nil, http.StatusNotFound, "not_found"},
		{"unknown round stats", http.MethodGet, "/api/rounds/" + uuid.NewString() + "/stats", nil, http.StatusNotFound, "not_found"},
		{"vote without ballot", http.MethodPost, "/api/tasks/" + uuid.NewString() + "/vote", map[string]string{"voter_id": "u"}, http.StatusBadRequest, "invalid_input"},
		{"bad proof data", http.MethodPost, "/api/tasks/" + uuid.NewString() + "/proof", map[string]string{"proof_type": "photo", "proof_data": "%%%"}, http.StatusBadRequest, "invalid_input"},
		{"proof without token", http.MethodGet, "/api/proofs/missing.png", nil, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := call(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, "error", res.Status)
			assert.Equal(t, tt.wantKind, res.ErrorKind)
		})
	}
}

func TestRoutes_OversizedBodyRejected(t *testing.T) {
	h := setupRouter(t)

	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xff}, 128<<10))
	code, res := call(t, h, http.MethodPost, "/api/tasks/"+uuid.NewString()+"/proof", map[string]string{
		"proof_type": "photo",
		"proof_data": big,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_input", res.ErrorKind)
	assert.Equal(t, "Request body too large", res.Message)
}

func TestRoutes_HealthCheck(t *testing.T) {
	h := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Services map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Services["database"].Status)
	assert.Equal(t, "ok", body.Services["cache"].Status)
}
