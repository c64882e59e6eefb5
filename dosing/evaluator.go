// Package dosing evaluates the dosing rules of catalog entries against a
// patient profile. Evaluation is a pure function of (entry, profile); the
// only shared state is the read-only catalog the Evaluator is built with.
package dosing

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/giygas/anesdose/catalog"
	"github.com/giygas/anesdose/logging"
	"github.com/giygas/anesdose/metrics"
)

// Age bounds of the MAC table: <1, <5, <40, <60, else.
var macAgeBounds = [...]int{1, 5, 40, 60}

// Maintenance for volatile agents spans 0.7 to 1.3 MAC.
const (
	macLowFraction  = 0.7
	macHighFraction = 1.3
)

// Source supplies catalog entries by category.
type Source interface {
	EntriesFor(category catalog.Category) []catalog.Entry
}

// Dose is one computed field of a drug card.
type Dose struct {
	Kind  catalog.RuleKind `json:"kind"`
	Label string           `json:"label"`
	Value string           `json:"value"`
}

// DrugResult is the evaluated card for one drug.
type DrugResult struct {
	Name        string        `json:"name"`
	Category    string        `json:"category,omitempty"`
	Doses       []Dose        `json:"doses"`
	Preparation string        `json:"preparation"`
	References  []string      `json:"references"`
	Skipped     []*FieldError `json:"skipped,omitempty"`
}

// Value returns the rendered value for kind, if it was computed.
func (r DrugResult) Value(kind catalog.RuleKind) (string, bool) {
	for _, d := range r.Doses {
		if d.Kind == kind {
			return d.Value, true
		}
	}
	return "", false
}

// Values returns the computed fields keyed by rule kind.
func (r DrugResult) Values() map[catalog.RuleKind]string {
	out := make(map[catalog.RuleKind]string, len(r.Doses))
	for _, d := range r.Doses {
		out[d.Kind] = d.Value
	}
	return out
}

// Evaluator computes dose cards from an injected catalog.
type Evaluator struct {
	source Source
}

// NewEvaluator creates an evaluator over source. A nil source behaves as an
// empty catalog.
func NewEvaluator(source Source) *Evaluator {
	if source == nil {
		source = catalog.New(nil)
	}
	return &Evaluator{source: source}
}

// macInput carries the age-adjusted MAC into rules that derive from it.
type macInput struct {
	value float64
	err   error
	ok    bool
}

// Evaluate computes every dose field the entry defines. A field whose
// covariates are missing or invalid is left out and listed in Skipped; the
// remaining fields are still computed.
func (ev *Evaluator) Evaluate(entry catalog.Entry, p Profile) DrugResult {
	result := DrugResult{
		Name:        entry.Name,
		Category:    entry.Category,
		Doses:       []Dose{},
		Preparation: entry.Preparation,
		References:  slices.Clone(entry.References),
	}
	if result.References == nil {
		result.References = []string{}
	}

	mac := resolveMAC(entry, p)

	for _, kind := range entry.Kinds() {
		rule := entry.Rules[kind]

		value, err := evalRule(rule, p, mac)
		if err != nil {
			fe := toFieldError(err)
			fe.Drug = entry.Name
			fe.Kind = kind
			result.Skipped = append(result.Skipped, fe)

			logging.Warn("Skipped dose field",
				"drug", entry.Name,
				"kind", string(kind),
				"covariate", fe.Covariate,
				"reason", fe.Reason,
			)
			metrics.DoseFieldErrorsTotal.WithLabelValues(entry.Name, string(kind)).Inc()
			continue
		}

		result.Doses = append(result.Doses, Dose{Kind: kind, Label: kind.Label(), Value: value})
	}

	return result
}

// resolveMAC computes the entry's age-adjusted MAC up front so dependent
// rules receive it as an argument.
func resolveMAC(entry catalog.Entry, p Profile) macInput {
	rule, ok := entry.Rule(catalog.MAC)
	if !ok {
		return macInput{err: invalid("mac", "not defined for this drug")}
	}
	if rule.Type != catalog.MACTable {
		return macInput{err: invalid("mac", "is not an age-adjusted table")}
	}
	v, err := macFor(rule, p.Age)
	if err != nil {
		return macInput{err: err}
	}
	return macInput{value: v, ok: true}
}

func evalRule(rule catalog.Rule, p Profile, mac macInput) (string, error) {
	switch rule.Type {
	case catalog.Constant:
		if rule.Text == "" {
			return "", invalid("rule", "constant has no text")
		}
		return rule.Text, nil

	case catalog.WeightRange:
		if rule.Range == nil {
			return "", invalid("rule", "weight range has no coefficients")
		}
		w, err := requireWeight(p)
		if err != nil {
			return "", err
		}
		hi := w * rule.Range.High
		return formatDose(w*rule.Range.Low, &hi, *rule.Range)

	case catalog.WeightSingle:
		if rule.Range == nil {
			return "", invalid("rule", "weight dose has no coefficient")
		}
		w, err := requireWeight(p)
		if err != nil {
			return "", err
		}
		return formatDose(w*rule.Range.Low, nil, *rule.Range)

	case catalog.ASAAgeTiered:
		if rule.Tiers == nil {
			return "", invalid("rule", "tiered dose has no tiers")
		}
		w, err := requireWeight(p)
		if err != nil {
			return "", err
		}
		if p.ASA < minASA || p.ASA > maxASA {
			return "", invalid("asa", fmt.Sprintf("must be between 1 and 5, got %d", p.ASA))
		}
		if p.Age < 0 {
			return "", invalid("age", "must not be negative")
		}
		r := selectTier(*rule.Tiers, p.Age, p.ASA)
		hi := w * r.High
		return formatDose(w*r.Low, &hi, r)

	case catalog.MACTable:
		v, err := macFor(rule, p.Age)
		if err != nil {
			return "", err
		}
		return formatNumber(v, 1), nil

	case catalog.MACFraction:
		if !mac.ok {
			return "", mac.err
		}
		lo, hi := macLowFraction*mac.value, macHighFraction*mac.value
		if !finite(lo) || !finite(hi) {
			return "", invalid("rule", "mac value is not finite")
		}
		span := formatNumber(lo, 1) + "-" + formatNumber(hi, 1) + " MAC"
		if rule.Prefix == "" {
			return span, nil
		}
		return rule.Prefix + " (" + span + ")", nil
	}

	return "", invalid("rule", fmt.Sprintf("unsupported rule type %q", rule.Type))
}

// selectTier applies the thresholds in fixed order; the first match wins.
func selectTier(t catalog.Tiers, age, asa int) catalog.Range {
	switch {
	case asa >= t.ASAThreshold:
		return t.Severe
	case age > t.AgeThreshold:
		return t.Elderly
	default:
		return t.Default
	}
}

func macFor(rule catalog.Rule, age int) (float64, error) {
	if len(rule.MACValues) != len(macAgeBounds)+1 {
		return 0, invalid("rule", fmt.Sprintf("mac table needs %d values, has %d", len(macAgeBounds)+1, len(rule.MACValues)))
	}
	if age < 0 {
		return 0, invalid("age", "must not be negative")
	}
	v := rule.MACValues[len(macAgeBounds)]
	for i, bound := range macAgeBounds {
		if age < bound {
			v = rule.MACValues[i]
			break
		}
	}
	if !finite(v) {
		return 0, invalid("rule", "mac value is not finite")
	}
	return v, nil
}

func requireWeight(p Profile) (float64, error) {
	if !validWeight(p.Weight) {
		return 0, invalid("weight", fmt.Sprintf("must be a number greater than 0 and at most %g", MaxWeight))
	}
	return p.Weight, nil
}

func invalid(covariate, reason string) *FieldError {
	return &FieldError{Covariate: covariate, Reason: reason}
}

func toFieldError(err error) *FieldError {
	var fe *FieldError
	if errors.As(err, &fe) {
		copied := *fe
		return &copied
	}
	return &FieldError{Covariate: "unknown", Reason: err.Error()}
}

// roundBMI keeps one decimal for display.
func roundBMI(bmi float64) float64 {
	return math.Round(bmi*10) / 10
}
