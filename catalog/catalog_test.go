package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLayout(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	expected := map[Category][]string{
		Induction:      {"Propofol"},
		Maintenance:    {"Sevoflurane"},
		Analgesic:      {"Fentanyl"},
		MuscleRelaxant: {"Rocuronium"},
		Vasoactive:     {"Phenylephrine"},
	}

	for category, names := range expected {
		entries := c.EntriesFor(category)
		require.Len(t, entries, len(names), "category %s", category)
		for i, name := range names {
			assert.Equal(t, name, entries[i].Name)
			assert.NotEmpty(t, entries[i].Preparation)
			assert.NotEmpty(t, entries[i].References)
		}
	}

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, "2024.1", c.Version())
}

func TestDefaultCatalogRuleKinds(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name  string
		kinds []RuleKind
	}{
		{"Propofol", []RuleKind{InductionDose, MaintenanceDose}},
		{"Sevoflurane", []RuleKind{InductionDose, MaintenanceDose, MAC}},
		{"Fentanyl", []RuleKind{InductionDose, MaintenanceDose, BolusDose}},
		{"Rocuronium", []RuleKind{InductionDose, MaintenanceDose, InfusionDose, Reversal}},
		{"Phenylephrine", []RuleKind{BolusDose, InfusionDose}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := c.Find(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kinds, e.Kinds())
		})
	}
}

func TestEntriesForUnknownCategory(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	entries := c.EntriesFor(Category("anticoagulant"))
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	var nilCatalog *Catalog
	assert.Empty(t, nilCatalog.EntriesFor(Induction))
}

func TestEntriesForReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	entries := c.EntriesFor(Induction)
	entries[0].Name = "Changed"
	entries[0].References[0] = "Changed"
	entries[0].Rules[InductionDose].Tiers.Default.Low = 99

	again := c.EntriesFor(Induction)
	assert.Equal(t, "Propofol", again[0].Name)
	assert.NotEqual(t, "Changed", again[0].References[0])
	assert.Equal(t, 1.5, again[0].Rules[InductionDose].Tiers.Default.Low)
}

func TestFindIgnoresCaseAndAccents(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, query := range []string{"rocuronium", "ROCURONIUM", "  Rocurónium ", "Rocuronium"} {
		e, ok := c.Find(query)
		require.True(t, ok, "query %q", query)
		assert.Equal(t, "Rocuronium", e.Name)
	}

	_, ok := c.Find("ketamine")
	assert.False(t, ok)

	category, ok := c.CategoryOf("fentanyl")
	require.True(t, ok)
	assert.Equal(t, Analgesic, category)
}

func TestLoadRejectsUnknownCategory(t *testing.T) {
	doc := `
version: "x"
categories:
  sedatives:
    - name: Midazolam
      category: Sedative
      preparation: "1 mg/mL"
      references: []
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sedatives")
}

func TestLoadRejectsUnknownField(t *testing.T) {
	doc := `
categories:
  induction:
    - name: Etomidate
      dose: 0.3
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
}

func TestLoadPreservesOrder(t *testing.T) {
	doc := `
categories:
  analgesic:
    - name: Remifentanil
      category: Analgesic
      preparation: "50 mcg/mL"
      references: ["A"]
    - name: Morphine
      category: Analgesic
      preparation: "1 mg/mL"
      references: ["B"]
    - name: Alfentanil
      category: Analgesic
      preparation: "500 mcg/mL"
      references: ["A"]
`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	entries := c.EntriesFor(Analgesic)
	require.Len(t, entries, 3)
	assert.Equal(t, "Remifentanil", entries[0].Name)
	assert.Equal(t, "Morphine", entries[1].Name)
	assert.Equal(t, "Alfentanil", entries[2].Name)
	assert.Empty(t, c.EntriesFor(Induction))
	assert.Equal(t, 0, c.Counts()[Induction])
	assert.Equal(t, 3, c.Counts()[Analgesic])
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"induction", Induction, true},
		{"Maintenance", Maintenance, true},
		{"analgesic", Analgesic, true},
		{"analgesics", Analgesic, true},
		{"muscle-relaxant", MuscleRelaxant, true},
		{"muscle-relaxants", MuscleRelaxant, true},
		{"muscleRelaxants", MuscleRelaxant, true},
		{" vasoactive ", Vasoactive, true},
		{"sedative", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCategory(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryOrderAndTitles(t *testing.T) {
	assert.Equal(t,
		[]Category{Induction, Maintenance, Analgesic, MuscleRelaxant, Vasoactive},
		Categories())
	assert.Equal(t, "Muscle Relaxant", MuscleRelaxant.Title())
	assert.Equal(t, "Induction", Induction.Title())
}

func TestRuleKindLabels(t *testing.T) {
	assert.Equal(t, "Infusion Rate", InfusionDose.Label())
	assert.Equal(t, "MAC Value", MAC.Label())
	assert.False(t, RuleKind("loadingDose").Valid())
	assert.Equal(t, "loadingDose", RuleKind("loadingDose").Label())
}
