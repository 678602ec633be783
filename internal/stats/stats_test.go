package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{"empty", nil, 0, false},
		{"single", []float64{5}, 5, true},
		{"odd", []float64{1, 2, 3}, 2, true},
		{"even", []float64{1, 2, 3, 4}, 2.5, true},
		{"unsorted", []float64{9, 1, 5}, 5, true},
		{"even_integers_mean_is_fractional", []float64{3, 4}, 3.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _ = Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPercentile(t *testing.T) {
	five := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
		ok     bool
	}{
		{"empty", nil, 50, 0, false},
		{"empty_p0", []float64{}, 0, 0, false},
		{"single_p50", []float64{10}, 50, 10, true},
		{"single_p99", []float64{10}, 99, 10, true},
		{"p50", five, 50, 3, true},
		{"p0", five, 0, 1, true},
		{"p100", five, 100, 5, true},
		{"p25_integral_rank", five, 25, 2, true},
		{"p90_interpolated", five, 90, 4.6, true},
		{"two_values_p50", []float64{10, 20}, 50, 15, true},
		{"unsorted_input", []float64{5, 1, 4, 2, 3}, 75, 4, true},
		{"clamped_high", five, 150, 5, true},
		{"clamped_low", five, -10, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percentile(tt.values, tt.p)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPercentile_IntegralRankIsExact(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[i] = float64(i) * 0.1
	}

	for p := 0; p <= 100; p++ {
		got, ok := Percentile(values, float64(p))
		require.True(t, ok)
		assert.Equal(t, values[p], got, "p=%d", p)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		assert.False(t, s.HasData)
		assert.Zero(t, s.Count)
	})

	t.Run("values", func(t *testing.T) {
		s := Summarize([]float64{4, 1, 3, 2})
		require.True(t, s.HasData)
		assert.Equal(t, 4, s.Count)
		assert.Equal(t, 1.0, s.Min)
		assert.Equal(t, 4.0, s.Max)
		assert.Equal(t, 2.5, s.Mean)
		assert.Equal(t, 2.5, s.Median)

		p95, _ := Percentile([]float64{1, 2, 3, 4}, 95)
		p99, _ := Percentile([]float64{1, 2, 3, 4}, 99)
		assert.Equal(t, p95, s.P95)
		assert.Equal(t, p99, s.P99)
	})
}
