package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/anesdose/health"
	"github.com/giygas/anesdose/interfaces"
	"github.com/giygas/anesdose/logging"
)

const (
	RateLimiterSweepJobName = "rate-limiter-sweep"
	LogCleanupJobName       = "log-cleanup"
	HealthLogJobName        = "health-log"
	CatalogQualityJobName   = "catalog-quality"
)

// Sweeper drops idle rate limiter buckets and returns how many remain.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// RateLimiterSweepJob forgets clients that have been idle for longer than idle.
func RateLimiterSweepJob(sweeper Sweeper, every, idle time.Duration) Job {
	return Job{
		Name:  RateLimiterSweepJobName,
		Every: every,
		Run: func() error {
			remaining := sweeper.Sweep(idle)
			logging.Debug("Rate limiter buckets swept", "remaining", remaining)
			return nil
		},
	}
}

// LogCleanupJob removes log files past their retention period.
func LogCleanupJob(cleanup func() (int, error), every time.Duration) Job {
	return Job{
		Name:  LogCleanupJobName,
		Every: every,
		Run: func() error {
			deleted, err := cleanup()
			if err != nil {
				return fmt.Errorf("log cleanup: %w", err)
			}
			if deleted > 0 {
				logging.Info("Cleaned up old log files", "count", deleted)
			}
			return nil
		},
	}
}

// HealthLogJob writes the current health status to the log and fails when
// the service is unhealthy.
func HealthLogJob(checker interfaces.HealthChecker, every time.Duration) Job {
	return Job{
		Name:  HealthLogJobName,
		Every: every,
		Run: func() error {
			status, details, _ := checker.HealthCheck()
			switch status {
			case health.StatusHealthy:
				logging.Info("Health check", "status", status, "drugs", details["drugs"], "uptime", details["uptime"])
			case health.StatusDegraded:
				logging.Warn("Health check", "status", status, "empty_categories", details["empty_categories"])
			default:
				return fmt.Errorf("service is %s", status)
			}
			return nil
		},
	}
}

// CatalogQualityJob logs the catalog quality report.
func CatalogQualityJob(validator interfaces.CatalogValidator, store interfaces.CatalogStore, every time.Duration) Job {
	return Job{
		Name:  CatalogQualityJobName,
		Every: every,
		Run: func() error {
			report := validator.ReportCatalogQuality(store)
			if !report.Clean() {
				return fmt.Errorf("catalog %s has %d invalid rules and %d empty categories",
					report.Version, len(report.InvalidRules), len(report.EmptyCategories))
			}
			logging.Debug("Catalog quality check passed", "version", report.Version, "entries", report.TotalEntries)
			return nil
		},
	}
}
