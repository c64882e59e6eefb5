package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/interfaces"
	"github.com/giygas/anesdose/logging"
)

const (
	maxNameLength = 100
	macTableSize  = 5
)

// Drug name searches: letters (accented included), digits, spaces, hyphens.
var inputRegex = regexp.MustCompile(`^[\p{L}0-9\s\-]+$`)

// CatalogValidatorImpl implements the interfaces.CatalogValidator interface
type CatalogValidatorImpl struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() interfaces.CatalogValidator {
	return &CatalogValidatorImpl{}
}

// ValidateEntry checks that an entry has a name and that every rule can be
// evaluated for its kind.
func (v *CatalogValidatorImpl) ValidateEntry(e *catalog.Entry) error {
	if e == nil {
		return fmt.Errorf("entry is nil")
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		return fmt.Errorf("entry has an empty name")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("name too long for %s: %d characters", name, len(name))
	}
	if len(e.Rules) == 0 {
		return fmt.Errorf("%s defines no dose rules", name)
	}

	for _, kind := range sortedKinds(e) {
		if err := checkRule(e, kind, e.Rules[kind]); err != nil {
			return fmt.Errorf("%s/%s: %w", name, kind, err)
		}
	}
	return nil
}

// sortedKinds returns the entry's kinds in display order followed by any
// unknown kinds.
func sortedKinds(e *catalog.Entry) []catalog.RuleKind {
	kinds := e.Kinds()
	for kind := range e.Rules {
		if !kind.Valid() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func checkRule(e *catalog.Entry, kind catalog.RuleKind, rule catalog.Rule) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown dose field")
	}

	if kind == catalog.MAC && rule.Type != catalog.MACTable {
		return fmt.Errorf("mac must use a %s rule, got %q", catalog.MACTable, rule.Type)
	}

	switch rule.Type {
	case catalog.Constant:
		if strings.TrimSpace(rule.Text) == "" {
			return fmt.Errorf("constant rule has no text")
		}
	case catalog.WeightRange:
		if err := checkRange(rule.Range, true); err != nil {
			return err
		}
	case catalog.WeightSingle:
		if err := checkRange(rule.Range, false); err != nil {
			return err
		}
	case catalog.ASAAgeTiered:
		t := rule.Tiers
		if t == nil {
			return fmt.Errorf("tiered rule has no tiers")
		}
		if t.ASAThreshold < 1 || t.ASAThreshold > 5 {
			return fmt.Errorf("asa threshold must be between 1 and 5, got %d", t.ASAThreshold)
		}
		if t.AgeThreshold < 0 {
			return fmt.Errorf("age threshold must not be negative, got %d", t.AgeThreshold)
		}
		tiers := []struct {
			label string
			r     catalog.Range
		}{{"severe", t.Severe}, {"elderly", t.Elderly}, {"default", t.Default}}
		for _, tier := range tiers {
			if err := checkRange(&tier.r, true); err != nil {
				return fmt.Errorf("%s tier: %w", tier.label, err)
			}
		}
	case catalog.MACTable:
		if kind != catalog.MAC {
			return fmt.Errorf("%s rule only applies to mac", catalog.MACTable)
		}
		if len(rule.MACValues) != macTableSize {
			return fmt.Errorf("mac table needs %d values, got %d", macTableSize, len(rule.MACValues))
		}
		for _, value := range rule.MACValues {
			if value <= 0 {
				return fmt.Errorf("mac values must be positive, got %v", value)
			}
		}
	case catalog.MACFraction:
		if _, ok := e.Rule(catalog.MAC); !ok {
			return fmt.Errorf("%s rule needs a mac rule on the same entry", catalog.MACFraction)
		}
	default:
		return fmt.Errorf("unsupported rule type %q", rule.Type)
	}
	return nil
}

func checkRange(r *catalog.Range, needHigh bool) error {
	if r == nil {
		return fmt.Errorf("rule has no range")
	}
	if r.Low <= 0 {
		return fmt.Errorf("low coefficient must be positive, got %v", r.Low)
	}
	if needHigh && r.High < r.Low {
		return fmt.Errorf("high coefficient %v is below low %v", r.High, r.Low)
	}
	if strings.TrimSpace(r.Unit) == "" {
		return fmt.Errorf("range has no unit")
	}
	if r.Precision < 0 {
		return fmt.Errorf("precision must not be negative, got %d", r.Precision)
	}
	return nil
}

// ValidateCatalog fails on an empty catalog, a drug listed twice, or an
// invalid entry.
func (v *CatalogValidatorImpl) ValidateCatalog(store interfaces.CatalogStore) error {
	if store == nil || store.Len() == 0 {
		return fmt.Errorf("catalog has no entries")
	}

	seen := make(map[string]catalog.Category)
	for _, category := range catalog.Categories() {
		for _, e := range store.EntriesFor(category) {
			key := nameKey(e.Name)
			if first, dup := seen[key]; dup {
				return fmt.Errorf("duplicate drug %s in %s and %s", e.Name, first, category)
			}
			seen[key] = category

			if err := v.ValidateEntry(&e); err != nil {
				return fmt.Errorf("invalid entry in %s: %w", category, err)
			}
		}
	}
	return nil
}

// ReportCatalogQuality collects every issue found in the store.
func (v *CatalogValidatorImpl) ReportCatalogQuality(store interfaces.CatalogStore) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		EmptyCategories:           []catalog.Category{},
		DuplicateNames:            []string{},
		EntriesWithoutRules:       []string{},
		EntriesWithoutPreparation: []string{},
		EntriesWithoutReferences:  []string{},
		InvalidRules:              []string{},
	}
	if store == nil {
		return report
	}
	report.Version = store.Version()
	report.TotalEntries = store.Len()

	seen := make(map[string]bool)
	for _, category := range catalog.Categories() {
		entries := store.EntriesFor(category)
		if len(entries) == 0 {
			report.EmptyCategories = append(report.EmptyCategories, category)
		}

		for _, e := range entries {
			key := nameKey(e.Name)
			if seen[key] {
				report.DuplicateNames = append(report.DuplicateNames, e.Name)
			}
			seen[key] = true

			if len(e.Rules) == 0 {
				report.EntriesWithoutRules = append(report.EntriesWithoutRules, e.Name)
			}
			if strings.TrimSpace(e.Preparation) == "" {
				report.EntriesWithoutPreparation = append(report.EntriesWithoutPreparation, e.Name)
			}
			if len(e.References) == 0 {
				report.EntriesWithoutReferences = append(report.EntriesWithoutReferences, e.Name)
			}
			for _, kind := range sortedKinds(&e) {
				if err := checkRule(&e, kind, e.Rules[kind]); err != nil {
					report.InvalidRules = append(report.InvalidRules, fmt.Sprintf("%s/%s: %v", e.Name, kind, err))
				}
			}
		}
	}

	if !report.Clean() {
		logging.Warn("Catalog quality issues detected",
			"version", report.Version,
			"empty_categories", len(report.EmptyCategories),
			"duplicates", len(report.DuplicateNames),
			"invalid_rules", len(report.InvalidRules),
		)
	}
	return report
}

// ValidateInput validates a drug name search string
func (v *CatalogValidatorImpl) ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len([]rune(trimmed)) < 2 {
		return fmt.Errorf("input too short: minimum 2 characters")
	}

	if len(trimmed) > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	if len(strings.Fields(trimmed)) > 4 {
		return fmt.Errorf("search query too complex: maximum 4 words allowed")
	}

	if !inputRegex.MatchString(trimmed) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and hyphens are allowed")
	}

	if hasExcessiveRepetition(trimmed) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports the same byte repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
