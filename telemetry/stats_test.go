package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 2.5},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
		{"p25 interpolated", []float64{10, 20, 30, 40}, 0.375, 15.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeTickStats(t *testing.T) {
	// Unsorted on purpose
	values := []float64{200, 100, 150, 120, 180, 110, 190, 130, 170, 160}
	mean, std, p10, p50, p90 := ComputeTickStats(values)

	if math.Abs(mean-151) > 0.001 {
		t.Errorf("mean = %v, want 151", mean)
	}
	if std <= 0 {
		t.Errorf("std = %v, want positive", std)
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
	if p10 != 100 || p90 != 190 {
		t.Errorf("p10 = %v, p90 = %v, want 100 and 190", p10, p90)
	}
	if values[0] != 200 {
		t.Error("input slice should not be sorted in place")
	}
}

func TestComputeTickStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeTickStats([]float64{})

	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestComputeScoreStats(t *testing.T) {
	mean, std, p50 := ComputeScoreStats([]float64{5050})
	if mean != 5050 || std != 0 || p50 != 5050 {
		t.Errorf("single score: mean=%v std=%v p50=%v", mean, std, p50)
	}

	mean, std, _ = ComputeScoreStats([]float64{4000, 6000})
	if mean != 5000 {
		t.Errorf("mean = %v, want 5000", mean)
	}
	// Sample standard deviation
	if math.Abs(std-math.Sqrt(2e6)) > 0.001 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(2e6))
	}
}
