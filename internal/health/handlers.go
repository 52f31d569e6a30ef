package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-nursery/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady flips the readiness gate. The API clears it when draining for shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker probes the dependencies the API cannot serve without.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler exposes the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

type readyStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Live always answers 200 while the process is up.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready answers 503 when draining or when Postgres or Redis cannot be reached.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, readyStatus{Status: "draining", Checks: map[string]string{}})
		return
	}
	if h.Checker == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "unavailable", "dependencies unavailable", nil)
		return
	}
	ctx := r.Context()
	checks := map[string]string{"db": "ok", "redis": "ok"}
	if err := h.Checker.PingDB(ctx, orDefault(h.DBTimeout, 500*time.Millisecond)); err != nil {
		checks["db"] = err.Error()
	}
	if err := h.Checker.PingRedis(ctx, orDefault(h.RedisTimeout, 300*time.Millisecond)); err != nil {
		checks["redis"] = err.Error()
	}
	if checks["db"] != "ok" || checks["redis"] != "ok" {
		common.JSON(w, http.StatusServiceUnavailable, readyStatus{Status: "degraded", Checks: checks})
		return
	}
	common.JSON(w, http.StatusOK, readyStatus{Status: "ready", Checks: checks})
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
