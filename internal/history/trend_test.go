package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name       string
		prev, curr float64
		before     []string
		after      []string
		want       Trend
	}{
		{
			name: "increase",
			prev: 10, curr: 15,
			before: []string{"a"},
			after:  []string{"a", "b"},
			want:   Trend{From: 10, To: 15, Delta: 5, DeltaPercent: 50, Direction: Up, New: 1},
		},
		{
			name: "decrease",
			prev: 3, curr: 2,
			before: []string{"a", "b"},
			after:  []string{"a"},
			want:   Trend{From: 3, To: 2, Delta: -1, DeltaPercent: -33.33, Direction: Down, Resolved: 1},
		},
		{
			name: "from zero",
			prev: 0, curr: 6,
			after: []string{"a"},
			want:  Trend{To: 6, Delta: 6, Direction: Up, New: 1},
		},
		{
			name: "repeated fingerprints",
			prev: 12, curr: 12,
			before: []string{"a", "a"},
			after:  []string{"a", "a", "a"},
			want:   Trend{From: 12, To: 12, Direction: Flat, New: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute(tt.prev, tt.curr, tt.before, tt.after))
		})
	}
}

func TestFirstRun(t *testing.T) {
	trend := FirstRun(1.234567)
	assert.True(t, trend.FirstRun)
	assert.Equal(t, 1.2346, trend.To)
	assert.Equal(t, Flat, trend.Direction)
}
