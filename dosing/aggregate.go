package dosing

import (
	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/metrics"
	"github.com/google/uuid"
)

// CategoryResult is the evaluated content of one category tab.
type CategoryResult struct {
	Category   catalog.Category `json:"category"`
	Results    []DrugResult     `json:"results"`
	References []string         `json:"references"`
}

// Empty reports whether the category had no drugs to show.
func (c CategoryResult) Empty() bool {
	return len(c.Results) == 0
}

// Calculation is the outcome of one submitted profile across all categories.
type Calculation struct {
	ID         string           `json:"id"`
	Profile    Profile          `json:"profile"`
	BMI        float64          `json:"bmi"`
	Categories []CategoryResult `json:"categories"`
}

// Category returns the result for one category.
func (c *Calculation) Category(category catalog.Category) (CategoryResult, bool) {
	for _, r := range c.Categories {
		if r.Category == category {
			return r, true
		}
	}
	return CategoryResult{}, false
}

// Aggregate evaluates every entry of a category in catalog order and
// collects the references of all entries, deduplicated by exact string and
// kept in first-seen order.
func (ev *Evaluator) Aggregate(category catalog.Category, p Profile) CategoryResult {
	entries := ev.source.EntriesFor(category)

	out := CategoryResult{
		Category:   category,
		Results:    make([]DrugResult, 0, len(entries)),
		References: []string{},
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		out.Results = append(out.Results, ev.Evaluate(entry, p))

		for _, ref := range entry.References {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out.References = append(out.References, ref)
		}
	}

	return out
}

// Calculate validates the profile and, if it passes, aggregates every
// category in display order. A *ValidationError stops the whole calculation.
func (ev *Evaluator) Calculate(p Profile) (*Calculation, error) {
	if err := p.Validate(); err != nil {
		metrics.ProfileValidationFailuresTotal.Inc()
		return nil, err
	}

	categories := catalog.Categories()
	calc := &Calculation{
		ID:         uuid.NewString(),
		Profile:    p,
		BMI:        roundBMI(p.BMI()),
		Categories: make([]CategoryResult, 0, len(categories)),
	}

	for _, category := range categories {
		calc.Categories = append(calc.Categories, ev.Aggregate(category, p))
		metrics.DoseCalculationsTotal.WithLabelValues(string(category)).Inc()
	}

	return calc, nil
}

// CalculateCategory validates the profile and aggregates a single category.
func (ev *Evaluator) CalculateCategory(category catalog.Category, p Profile) (CategoryResult, error) {
	if err := p.Validate(); err != nil {
		metrics.ProfileValidationFailuresTotal.Inc()
		return CategoryResult{}, err
	}

	metrics.DoseCalculationsTotal.WithLabelValues(string(category)).Inc()
	return ev.Aggregate(category, p), nil
}
