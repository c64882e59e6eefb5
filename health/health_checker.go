// Package health reports whether the dose reference service can answer
// requests for every category.
package health

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/interfaces"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	store     interfaces.CatalogStore
	startTime time.Time
	now       func() time.Time
}

// NewHealthChecker creates a health checker over store. Uptime is measured
// from startTime.
func NewHealthChecker(store interfaces.CatalogStore, startTime time.Time) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		store:     store,
		startTime: startTime,
		now:       time.Now,
	}
}

// HealthCheck is healthy when every category has at least one drug,
// degraded when some category is empty and unhealthy when the catalog is
// empty. Degraded still answers 200 since the remaining categories work.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	counts := map[catalog.Category]int{}
	total := 0
	version := ""
	if h.store != nil {
		counts = h.store.Counts()
		total = h.store.Len()
		version = h.store.Version()
	}

	categories := make(map[string]int, len(counts))
	var empty []string
	for _, c := range catalog.Categories() {
		categories[string(c)] = counts[c]
		if counts[c] == 0 {
			empty = append(empty, string(c))
		}
	}

	switch {
	case total == 0:
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case len(empty) > 0:
		status, httpStatus = StatusDegraded, http.StatusOK
	default:
		status, httpStatus = StatusHealthy, http.StatusOK
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data = map[string]any{
		"catalog_version": version,
		"drugs":           total,
		"categories":      categories,
		"uptime":          formatUptimeHuman(h.Uptime()),
		"uptime_seconds":  int64(h.Uptime().Seconds()),
		"memory_usage_mb": int(m.Alloc / 1024 / 1024),
	}
	if len(empty) > 0 {
		data["empty_categories"] = empty
	}

	return status, data, httpStatus
}

// Uptime returns the time elapsed since the service started.
func (h *HealthCheckerImpl) Uptime() time.Duration {
	return h.now().Sub(h.startTime)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
