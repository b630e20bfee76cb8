package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 14}, d)
	assert.Equal(t, "2025-03-14", d.String())

	for _, bad := range []string{"", "2025-02-30", "14/03/2025", "2025-3-14"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestNew_RejectsOverflow(t *testing.T) {
	_, err := New(2024, time.February, 30)
	assert.Error(t, err)

	d, err := New(2024, time.February, 29)
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, d.Weekday())
}

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2025-01-06": "2025-01-06", // Monday
		"2025-01-08": "2025-01-06",
		"2025-01-11": "2025-01-06", // Saturday
		"2025-01-12": "2025-01-06", // Sunday belongs to the week that started Monday
		"2025-01-01": "2024-12-30",
	}
	for in, want := range cases {
		assert.Equal(t, want, MustParse(in).WeekStart().String(), in)
	}
}

func TestMonthBounds(t *testing.T) {
	d := MustParse("2024-02-17")
	assert.Equal(t, "2024-02-01", d.MonthStart().String())
	assert.Equal(t, "2024-02-29", d.MonthEnd().String())
	assert.True(t, d.SameMonth(MustParse("2024-02-01")))
	assert.False(t, d.SameMonth(MustParse("2023-02-17")))
}

func TestDaysSinceAndAddDays(t *testing.T) {
	epoch := MustParse("2024-01-01")
	assert.Equal(t, 7, MustParse("2024-01-08").DaysSince(epoch))
	assert.Equal(t, -7, MustParse("2023-12-25").DaysSince(epoch))
	assert.Equal(t, "2024-03-01", MustParse("2024-02-28").AddDays(2).String())
}

func TestWithin(t *testing.T) {
	d := MustParse("2025-05-10")
	assert.True(t, d.Within(Date{}, Date{}))
	assert.True(t, d.Within(MustParse("2025-05-10"), MustParse("2025-05-10")))
	assert.False(t, d.Within(MustParse("2025-05-11"), Date{}))
	assert.False(t, d.Within(Date{}, MustParse("2025-05-09")))
}

func TestJSON(t *testing.T) {
	type doc struct {
		Date  Date            `json:"date"`
		Index map[Date]string `json:"index"`
	}
	in := doc{Date: MustParse("2025-07-04"), Index: map[Date]string{MustParse("2025-07-05"): "x"}}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-07-04","index":{"2025-07-05":"x"}}`, string(raw))

	var out doc
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestToday_UsesLocation(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	instant := time.Date(2025, 1, 7, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-06", Today(instant, bogota).String())
}
