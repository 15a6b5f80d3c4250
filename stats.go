package rigmerge

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Summary describes one signal column.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Summarize computes basic statistics plus approximate quantiles for one
// signal column. Quantiles come from a DDSketch with 1% relative accuracy.
func Summarize(values []float64) (*Summary, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to summarize")
	}

	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		return nil, err
	}

	s := &Summary{Count: len(values), Min: math.MaxFloat64, Max: -math.MaxFloat64}
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		if err := sketch.Add(v); err != nil {
			return nil, err
		}
	}
	s.Mean = sum / float64(len(values))

	s.P50, _ = sketch.GetValueAtQuantile(0.50)
	s.P95, _ = sketch.GetValueAtQuantile(0.95)
	s.P99, _ = sketch.GetValueAtQuantile(0.99)
	return s, nil
}
