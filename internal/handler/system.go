package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/services"
	"github.com/YugenJarwal13/InternalDMS/internal/httputil"
)

// SystemHandler serves the activity log and health checks
type SystemHandler struct {
	activityService services.ActivityService
	storeBackend    string
	contentType     string
	started         time.Time
	logger          *slog.Logger
}

func NewSystemHandler(activityService services.ActivityService, storeBackend, contentType string, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		activityService: activityService,
		storeBackend:    storeBackend,
		contentType:     contentType,
		started:         time.Now(),
		logger:          logger,
	}
}

// HealthCheck reports the configured backends
// GET /health
func (h *SystemHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"store":   h.storeBackend,
		"content": h.contentType,
	})
}

// SystemHealth is the admin dashboard view: uptime, runtime memory and the
// configured backends
// GET /api/system/health
func (h *SystemHandler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsAdmin() {
		handleError(w, r, &domain.PermissionDeniedError{Action: "view system health", Path: "-", Reason: "admin role required"})
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	uptime := time.Since(h.started)

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"server": map[string]any{
			"uptime":         formatUptime(uptime),
			"uptime_seconds": int64(uptime.Seconds()),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
			"go_version":     runtime.Version(),
		},
		"resources": map[string]any{
			"cpus":         runtime.NumCPU(),
			"goroutines":   runtime.NumGoroutine(),
			"heap_alloc":   humanize.Bytes(mem.HeapAlloc),
			"memory_sys":   humanize.Bytes(mem.Sys),
			"memory_bytes": mem.Sys,
			"gc_cycles":    mem.NumGC,
		},
		"store":   h.storeBackend,
		"content": h.contentType,
	})
}

// formatUptime renders d as "1d 2h 3m".
func formatUptime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// ActivityLog lists activity newest first
// GET /api/logs?limit=&offset=
func (h *SystemHandler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	limit, err := httputil.QueryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := httputil.QueryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	entries, err := h.activityService.List(r.Context(), p, limit, offset)
	if err != nil {
		handleError(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}
