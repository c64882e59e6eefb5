package dosing

import (
	"errors"
	"testing"

	"github.com/giygas/anesdose/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMatchesCatalogLength(t *testing.T) {
	ev, c := defaultEvaluator(t)

	profiles := []Profile{
		adult(70, 70, 3),
		{Age: 3, Weight: 20, Height: 100, Sex: Female, ASA: 1},
		{Age: 0, Weight: 3.4, Height: 50, Sex: Male, ASA: 2},
		adult(140, 45, 5),
	}

	for _, p := range profiles {
		for _, category := range catalog.Categories() {
			res := ev.Aggregate(category, p)
			assert.Equal(t, category, res.Category)
			assert.Len(t, res.Results, len(c.EntriesFor(category)))
			assert.False(t, res.Empty())
		}
	}
}

func TestAggregateDeduplicatesReferences(t *testing.T) {
	shared := "Stoelting's Pharmacology & Physiology in Anesthetic Practice, 6th ed."
	c := catalog.New(map[catalog.Category][]catalog.Entry{
		catalog.Analgesic: {
			{
				Name: "Fentanyl",
				Rules: map[catalog.RuleKind]catalog.Rule{
					catalog.BolusDose: {Type: catalog.WeightRange, Range: &catalog.Range{Low: 0.5, High: 1, Unit: "mcg/kg"}},
				},
				References: []string{shared, "UpToDate: Intravenous opioid analgesics"},
			},
			{
				Name: "Remifentanil",
				Rules: map[catalog.RuleKind]catalog.Rule{
					catalog.InfusionDose: {Type: catalog.WeightRange, Range: &catalog.Range{Low: 0.05, High: 0.2, Unit: "mcg/kg/min", Precision: 1}},
				},
				References: []string{"Miller's Anesthesia, 9th ed.", shared},
			},
		},
	})

	res := NewEvaluator(c).Aggregate(catalog.Analgesic, adult(70, 40, 1))

	require.Len(t, res.Results, 2)
	assert.Equal(t, "Fentanyl", res.Results[0].Name)
	assert.Equal(t, "Remifentanil", res.Results[1].Name)
	assert.Equal(t, []string{
		shared,
		"UpToDate: Intravenous opioid analgesics",
		"Miller's Anesthesia, 9th ed.",
	}, res.References)

	// drug-level references are left untouched
	assert.Equal(t, []string{"Miller's Anesthesia, 9th ed.", shared}, res.Results[1].References)
}

func TestAggregateEmptyCategory(t *testing.T) {
	c := catalog.New(map[catalog.Category][]catalog.Entry{})
	res := NewEvaluator(c).Aggregate(catalog.Vasoactive, adult(70, 40, 1))

	assert.True(t, res.Empty())
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
	assert.NotNil(t, res.References)
	assert.Empty(t, res.References)
}

func TestAggregateUnknownCategory(t *testing.T) {
	ev, _ := defaultEvaluator(t)
	res := ev.Aggregate(catalog.Category("antiemetic"), adult(70, 40, 1))
	assert.True(t, res.Empty())
}

func TestCalculateAllCategories(t *testing.T) {
	ev, _ := defaultEvaluator(t)

	calc, err := ev.Calculate(Profile{Age: 70, Weight: 70, Height: 175, Sex: Male, ASA: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, calc.ID)
	assert.Equal(t, 22.9, calc.BMI)

	order := make([]catalog.Category, len(calc.Categories))
	for i, res := range calc.Categories {
		order[i] = res.Category
	}
	assert.Equal(t, catalog.Categories(), order)

	induction, ok := calc.Category(catalog.Induction)
	require.True(t, ok)
	value, ok := induction.Results[0].Value(catalog.InductionDose)
	require.True(t, ok)
	assert.Equal(t, "70-105 mg (1-1.5 mg/kg)", value)
}

func TestCalculatePediatricScenario(t *testing.T) {
	ev, _ := defaultEvaluator(t)

	calc, err := ev.Calculate(Profile{Age: 3, Weight: 20, Height: 95, Sex: Female, ASA: 1})
	require.NoError(t, err)

	maintenance, ok := calc.Category(catalog.Maintenance)
	require.True(t, ok)
	value, ok := maintenance.Results[0].Value(catalog.MaintenanceDose)
	require.True(t, ok)
	assert.Contains(t, value, "1.8-3.3 MAC")
}

func TestCalculateIDsAreUnique(t *testing.T) {
	ev, _ := defaultEvaluator(t)
	p := adult(70, 40, 1)

	first, err := ev.Calculate(p)
	require.NoError(t, err)
	second, err := ev.Calculate(p)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Categories, second.Categories)
}

func TestCalculateRejectsInvalidProfile(t *testing.T) {
	ev, _ := defaultEvaluator(t)

	tests := []struct {
		name    string
		profile Profile
		fields  []string
	}{
		{"zero weight", Profile{Age: 40, Weight: 0, Height: 170, Sex: Male, ASA: 1}, []string{"weight"}},
		{"negative age", Profile{Age: -1, Weight: 70, Height: 170, Sex: Male, ASA: 1}, []string{"age"}},
		{"zero height", Profile{Age: 40, Weight: 70, Height: 0, Sex: Male, ASA: 1}, []string{"height"}},
		{"ASA out of range", Profile{Age: 40, Weight: 70, Height: 170, Sex: Male, ASA: 6}, []string{"asa"}},
		{"missing sex", Profile{Age: 40, Weight: 70, Height: 170, ASA: 1}, []string{"sex"}},
		{"weight above bound", Profile{Age: 40, Weight: 1e305, Height: 1, Sex: Male, ASA: 2}, []string{"weight"}},
		{"height above bound", Profile{Age: 40, Weight: 70, Height: 301, Sex: Male, ASA: 2}, []string{"height"}},
		{"several fields", Profile{Age: -3, Weight: -1, Height: -5, Sex: Female, ASA: 2}, []string{"weight", "age", "height"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := ev.Calculate(tt.profile)
			assert.Nil(t, calc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Violations, len(tt.fields))
			for _, field := range tt.fields {
				assert.True(t, verr.Has(field), "expected violation for %s", field)
			}

			_, err = ev.CalculateCategory(catalog.Induction, tt.profile)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestProfileBMI(t *testing.T) {
	assert.InDelta(t, 22.857, Profile{Weight: 70, Height: 175}.BMI(), 0.001)
	assert.Equal(t, 0.0, Profile{Weight: 70, Height: 0}.BMI())
	assert.Equal(t, 0.0, Profile{Weight: 0, Height: 170}.BMI())
	assert.Equal(t, 0.0, Profile{Weight: 1e308, Height: 1}.BMI())
	assert.InDelta(t, 1e7, Profile{Weight: MaxWeight, Height: 1}.BMI(), 1)
}

func TestParseSex(t *testing.T) {
	for input, want := range map[string]Sex{"male": Male, "Female": Female, " M ": Male, "f": Female} {
		got, ok := ParseSex(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got)
	}
	_, ok := ParseSex("other")
	assert.False(t, ok)
}
