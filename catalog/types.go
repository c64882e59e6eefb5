package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups the drugs shown together on one results tab.
type Category string

const (
	Induction      Category = "induction"
	Maintenance    Category = "maintenance"
	Analgesic      Category = "analgesic"
	MuscleRelaxant Category = "muscle-relaxant"
	Vasoactive     Category = "vasoactive"
)

// categoryOrder is the order categories are evaluated and displayed in.
var categoryOrder = []Category{Induction, Maintenance, Analgesic, MuscleRelaxant, Vasoactive}

// Older clients used the plural tab ids.
var categoryAliases = map[string]Category{
	"analgesics":       Analgesic,
	"muscle-relaxants": MuscleRelaxant,
	"musclerelaxants":  MuscleRelaxant,
	"musclerelaxant":   MuscleRelaxant,
	"muscle_relaxant":  MuscleRelaxant,
}

// Categories returns every category in display order.
func Categories() []Category {
	return slices.Clone(categoryOrder)
}

// ParseCategory resolves a category slug or one of its legacy aliases.
func ParseCategory(s string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c := Category(key); c.Valid() {
		return c, true
	}
	c, ok := categoryAliases[key]
	return c, ok
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return slices.Contains(categoryOrder, c)
}

// Title returns the human label, e.g. "Muscle Relaxant".
func (c Category) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "-", " "))
}

// RuleKind names one dose field a drug entry may define.
type RuleKind string

const (
	InductionDose   RuleKind = "inductionDose"
	MaintenanceDose RuleKind = "maintenanceDose"
	BolusDose       RuleKind = "bolusDose"
	InfusionDose    RuleKind = "infusionDose"
	MAC             RuleKind = "mac"
	Reversal        RuleKind = "reversal"
)

var ruleKindOrder = []RuleKind{InductionDose, MaintenanceDose, BolusDose, InfusionDose, MAC, Reversal}

var ruleKindLabels = map[RuleKind]string{
	InductionDose:   "Induction Dose",
	MaintenanceDose: "Maintenance Dose",
	BolusDose:       "Bolus Dose",
	InfusionDose:    "Infusion Rate",
	MAC:             "MAC Value",
	Reversal:        "Reversal",
}

// RuleKinds returns every rule kind in card display order.
func RuleKinds() []RuleKind {
	return slices.Clone(ruleKindOrder)
}

// Valid reports whether k is a known rule kind.
func (k RuleKind) Valid() bool {
	_, ok := ruleKindLabels[k]
	return ok
}

// Label returns the heading shown above the computed value.
func (k RuleKind) Label() string {
	if label, ok := ruleKindLabels[k]; ok {
		return label
	}
	return string(k)
}

// RuleType tags which variant of Rule is populated.
type RuleType string

const (
	// Constant renders Text verbatim.
	Constant RuleType = "constant"
	// WeightRange renders weight × {Low, High}.
	WeightRange RuleType = "weight_range"
	// WeightSingle renders weight × Low.
	WeightSingle RuleType = "weight_single"
	// ASAAgeTiered picks one of three weight ranges from ASA class and age.
	ASAAgeTiered RuleType = "asa_age_tiered"
	// MACTable looks the age-adjusted MAC up in MACValues.
	MACTable RuleType = "mac_table"
	// MACFraction renders 0.7×MAC to 1.3×MAC using the entry's MAC rule.
	MACFraction RuleType = "mac_fraction"
)

// Rule is one dosing rule. Only the fields matching Type are read.
type Rule struct {
	Type      RuleType  `yaml:"type" json:"type"`
	Text      string    `yaml:"text,omitempty" json:"text,omitempty"`
	Range     *Range    `yaml:"range,omitempty" json:"range,omitempty"`
	Tiers     *Tiers    `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	MACValues []float64 `yaml:"mac_values,omitempty" json:"mac_values,omitempty"`
	Prefix    string    `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// Range holds per-kg multipliers and how the product is displayed.
type Range struct {
	Low       float64 `yaml:"low" json:"low"`
	High      float64 `yaml:"high,omitempty" json:"high,omitempty"`
	Unit      string  `yaml:"unit" json:"unit"`
	Note      string  `yaml:"note,omitempty" json:"note,omitempty"`
	Precision int     `yaml:"precision,omitempty" json:"precision,omitempty"`
}

// Tiers is the fixed three-way split used by induction agents:
// asa >= ASAThreshold, else age > AgeThreshold, else Default.
type Tiers struct {
	ASAThreshold int   `yaml:"asa_threshold" json:"asa_threshold"`
	Severe       Range `yaml:"severe" json:"severe"`
	AgeThreshold int   `yaml:"age_threshold" json:"age_threshold"`
	Elderly      Range `yaml:"elderly" json:"elderly"`
	Default      Range `yaml:"default" json:"default"`
}

// Entry is one reference drug.
type Entry struct {
	Name        string            `yaml:"name" json:"name"`
	Category    string            `yaml:"category" json:"category"`
	Rules       map[RuleKind]Rule `yaml:"rules" json:"rules"`
	Preparation string            `yaml:"preparation" json:"preparation"`
	References  []string          `yaml:"references" json:"references"`
}

// Rule returns the rule defined for kind, if any.
func (e Entry) Rule(kind RuleKind) (Rule, bool) {
	r, ok := e.Rules[kind]
	return r, ok
}

// Kinds returns the rule kinds the entry defines, in display order.
func (e Entry) Kinds() []RuleKind {
	kinds := make([]RuleKind, 0, len(e.Rules))
	for _, k := range ruleKindOrder {
		if _, ok := e.Rules[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (e Entry) clone() Entry {
	out := e
	out.References = slices.Clone(e.References)
	if e.Rules != nil {
		out.Rules = make(map[RuleKind]Rule, len(e.Rules))
		for k, r := range e.Rules {
			out.Rules[k] = r.clone()
		}
	}
	return out
}

func (r Rule) clone() Rule {
	out := r
	out.MACValues = slices.Clone(r.MACValues)
	if r.Range != nil {
		rng := *r.Range
		out.Range = &rng
	}
	if r.Tiers != nil {
		t := *r.Tiers
		out.Tiers = &t
	}
	return out
}
