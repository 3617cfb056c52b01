// Package health exposes liveness and readiness endpoints. Readiness runs
// registered component checks, currently database connectivity.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/kityk/wms-order-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type Checker interface {
	Check(ctx context.Context) Check
}

type Response struct {
	Status Status  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

type Handler struct {
	checkers []Checker
}

func NewHandler(checkers ...Checker) *Handler {
	return &Handler{checkers: checkers}
}

func (h *Handler) Init(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, Response{Status: StatusHealthy}, http.StatusOK)
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: StatusHealthy}
	code := http.StatusOK

	for _, checker := range h.checkers {
		check := checker.Check(r.Context())
		resp.Checks = append(resp.Checks, check)
		if check.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
			code = http.StatusServiceUnavailable
		}
	}

	utils.WriteJSON(w, resp, code)
}

const dbCheckTimeout = 2 * time.Second

// DBChecker probes database connectivity with a bounded ping.
type DBChecker struct {
	db *sqlx.DB
}

func NewDBChecker(db *sqlx.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, dbCheckTimeout)
	defer cancel()

	start := time.Now()
	err := c.db.PingContext(ctx)
	check := Check{
		Name:       "database",
		Status:     StatusHealthy,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}
