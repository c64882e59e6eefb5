// Package interfaces defines the contracts between the dose reference
// components so handlers, health checks and jobs can be tested in isolation.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/dosing"
)

// CatalogQualityReport summarises problems found in a catalog.
type CatalogQualityReport struct {
	Version                   string             `json:"version"`
	TotalEntries              int                `json:"total_entries"`
	EmptyCategories           []catalog.Category `json:"empty_categories"`
	DuplicateNames            []string           `json:"duplicate_names"`
	EntriesWithoutRules       []string           `json:"entries_without_rules"`
	EntriesWithoutPreparation []string           `json:"entries_without_preparation"`
	EntriesWithoutReferences  []string           `json:"entries_without_references"`
	InvalidRules              []string           `json:"invalid_rules"` // "Drug/kind: reason"
}

// Clean reports whether the catalog has no issues at all.
func (r *CatalogQualityReport) Clean() bool {
	return len(r.EmptyCategories) == 0 &&
		len(r.DuplicateNames) == 0 &&
		len(r.EntriesWithoutRules) == 0 &&
		len(r.EntriesWithoutPreparation) == 0 &&
		len(r.EntriesWithoutReferences) == 0 &&
		len(r.InvalidRules) == 0
}

// CatalogStore is read-only access to the drug catalog. Implementations
// must be safe for concurrent use.
type CatalogStore interface {
	EntriesFor(category catalog.Category) []catalog.Entry
	Find(name string) (catalog.Entry, bool)
	CategoryOf(name string) (catalog.Category, bool)
	Counts() map[catalog.Category]int
	Len() int
	Version() string
}

// DoseCalculator evaluates a patient profile against the catalog.
type DoseCalculator interface {
	Calculate(p dosing.Profile) (*dosing.Calculation, error)
	CalculateCategory(category catalog.Category, p dosing.Profile) (dosing.CategoryResult, error)
}

// Scheduler runs background maintenance jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler serves the public API.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	CalculateDoses(w http.ResponseWriter, r *http.Request)
	CalculateDosesQuery(w http.ResponseWriter, r *http.Request)
	CalculateCategory(w http.ResponseWriter, r *http.Request)
	ServeCatalog(w http.ResponseWriter, r *http.Request)
	ServeCatalogCategory(w http.ResponseWriter, r *http.Request)
	FindDrug(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health.
type HealthChecker interface {
	// HealthCheck returns the status word, details and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
	Uptime() time.Duration
}

// CatalogValidator checks catalog integrity and user supplied lookups.
type CatalogValidator interface {
	// ValidateEntry checks a single entry and its rules
	ValidateEntry(e *catalog.Entry) error

	// ValidateCatalog fails on the first structural problem in the store
	ValidateCatalog(store CatalogStore) error

	// ReportCatalogQuality lists every issue without failing
	ReportCatalogQuality(store CatalogStore) *CatalogQualityReport

	// ValidateInput validates a drug name search string
	ValidateInput(input string) error
}
