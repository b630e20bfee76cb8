package timeclock

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_Split(t *testing.T) {
	day := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name                    string
		in, out                 time.Time
		net, ordinary, overtime string
	}{
		{"long day with overtime", at(8, 0), at(18, 0), "9", "8", "1"},
		{"half day without meal break", at(9, 0), at(13, 0), "4", "4", "0"},
		{"exactly five hours keeps the break", at(8, 0), at(13, 0), "5", "5", "0"},
		{"one minute over five hours", at(8, 0), at(13, 1), "4.02", "4.02", "0"},
		{"exactly nine hours gross", at(7, 0), at(16, 0), "8", "8", "0"},
		{"thirteen hours", at(6, 0), at(19, 0), "12", "8", "4"},
		{"zero length", at(8, 0), at(8, 0), "0", "0", "0"},
		{"twenty minutes", at(8, 0), at(8, 20), "0.33", "0.33", "0"},
	}

	p := DefaultPolicy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := p.Split(tt.in, tt.out)
			assert.True(t, h.Net.Equal(decimal.RequireFromString(tt.net)), "net = %s", h.Net)
			assert.True(t, h.Ordinary.Equal(decimal.RequireFromString(tt.ordinary)), "ordinary = %s", h.Ordinary)
			assert.True(t, h.Overtime.Equal(decimal.RequireFromString(tt.overtime)), "overtime = %s", h.Overtime)
			assert.True(t, h.Ordinary.LessThanOrEqual(decimal.NewFromInt(8)))
			assert.True(t, h.Ordinary.Add(h.Overtime).Sub(h.Net).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")))
		})
	}
}

func TestPolicy_Premium(t *testing.T) {
	p := DefaultPolicy()
	rate := decimal.RequireFromString("10000")
	overtime := decimal.RequireFromString("1.5")

	assert.Equal(t, "18750.00", p.Premium(overtime, time.Wednesday, rate).StringFixed(2))
	assert.Equal(t, "26250.00", p.Premium(overtime, time.Saturday, rate).StringFixed(2))
	assert.Equal(t, "30000.00", p.Premium(overtime, time.Sunday, rate).StringFixed(2))
	assert.True(t, p.Premium(decimal.Zero, time.Sunday, rate).IsZero())
}

func TestPolicy_PremiumRoundsHalfUp(t *testing.T) {
	p := DefaultPolicy()
	// 0.33 * 12.35 * 1.25 = 5.0944; 0.5 * 0.01 * 1.25 = 0.00625
	assert.Equal(t, "5.09", p.Premium(decimal.RequireFromString("0.33"), time.Monday, decimal.RequireFromString("12.35")).StringFixed(2))
	assert.Equal(t, "0.01", p.Premium(decimal.RequireFromString("0.5"), time.Monday, decimal.RequireFromString("0.01")).StringFixed(2))
}
