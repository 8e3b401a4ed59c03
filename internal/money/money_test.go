package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		spent    int64
		budgeted int64
		want     float64
	}{
		{"half", 25000, 50000, 50},
		{"exact", 50000, 50000, 100},
		{"over", 60000, 50000, 120},
		{"zero_zero", 0, 0, 0},
		{"zero_budget_with_spend", 100, 0, MaxPercent},
		{"refund_net_negative", -500, 50000, 0},
		{"rounded", 1, 3, 33.33},
		{"capped", 1_000_000, 10, MaxPercent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.spent, tt.budgeted)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 4666.67, Rate(70000, 15))
	assert.Equal(t, 500.0, Rate(500, 0))
}

func TestUnitRounding(t *testing.T) {
	assert.Equal(t, int64(12400), CeilUnit(12301))
	assert.Equal(t, int64(12300), CeilUnit(12300))
	assert.Equal(t, int64(12300), FloorUnit(12399))
	assert.Equal(t, int64(12400), RoundUnit(12350))
	assert.Equal(t, int64(12300), RoundUnit(12349))
}

func TestShare(t *testing.T) {
	part, rem := Share(100, 1, 3)
	assert.Equal(t, int64(33), part)
	assert.True(t, rem.IsPositive())

	part, rem = Share(100, 0, 0)
	assert.Equal(t, int64(0), part)
	assert.True(t, rem.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.50 USD", Format(1250, "USD"))
	assert.Equal(t, "-0.05", Format(-5, ""))
}
