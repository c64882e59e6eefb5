package dosing

import (
	"testing"

	"github.com/giygas/anesdose/catalog"
)

// Benchmark a full calculation across every category
func BenchmarkCalculate(b *testing.B) {
	ev, _ := defaultEvaluator(b)
	p := Profile{Age: 45, Weight: 72.5, Height: 178, Sex: Male, ASA: 2}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ev.Calculate(p); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark the MAC table path, the only rule that interpolates by age
func BenchmarkAggregateMaintenance(b *testing.B) {
	ev, _ := defaultEvaluator(b)
	p := Profile{Age: 83, Weight: 61, Height: 160, Sex: Female, ASA: 3}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ev.Aggregate(catalog.Maintenance, p)
	}
}
