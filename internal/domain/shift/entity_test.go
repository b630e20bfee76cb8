package shift

import (
	"testing"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/stretchr/testify/assert"
)

func TestWeekIndex(t *testing.T) {
	d := calendar.MustParse
	tests := []struct {
		name      string
		epoch     string
		weekStart string
		want      int
	}{
		{"monday epoch, same week", "2024-01-01", "2024-01-01", 1},
		{"monday epoch, two weeks on", "2024-01-01", "2024-01-15", 3},
		{"monday epoch, week before", "2024-01-01", "2023-12-25", 0},
		{"monday epoch, far before", "2024-01-01", "2023-12-11", -2},
		{"wednesday epoch, following monday", "2024-01-03", "2024-01-08", 1},
		{"wednesday epoch, its own monday", "2024-01-03", "2024-01-01", 0},
		{"wednesday epoch, two mondays on", "2024-01-03", "2024-01-15", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekIndex(d(tt.epoch), d(tt.weekStart)))
		})
	}
}

func TestPattern_SlotForWeekWrapsBeforeEpoch(t *testing.T) {
	p := Pattern{Slots: []string{"06:00", "14:00", "22:00"}}
	assert.Equal(t, "06:00", p.SlotForWeek(1))
	assert.Equal(t, "14:00", p.SlotForWeek(2))
	assert.Equal(t, "22:00", p.SlotForWeek(0))
	assert.Equal(t, "14:00", p.SlotForWeek(-1))
}
