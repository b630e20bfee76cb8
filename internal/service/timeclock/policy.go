package timeclock

import (
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Policy holds the labor rules used to split a day's hours and price overtime.
type Policy struct {
	// DailyCap is the most a day can count as ordinary time.
	DailyCap time.Duration
	// MealBreak is deducted only when gross time is strictly above MealBreakThreshold.
	MealBreakThreshold time.Duration
	MealBreak          time.Duration
	// MaxShift bounds how long after its clock-in a previous day's open record may still
	// be closed. Older open records are left for an admin correction.
	MaxShift time.Duration

	WeekdayMultiplier  decimal.Decimal
	SaturdayMultiplier decimal.Decimal
	SundayMultiplier   decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		DailyCap:           8 * time.Hour,
		MealBreakThreshold: 5 * time.Hour,
		MealBreak:          time.Hour,
		MaxShift:           16 * time.Hour,
		WeekdayMultiplier:  decimal.RequireFromString("1.25"),
		SaturdayMultiplier: decimal.RequireFromString("1.75"),
		SundayMultiplier:   decimal.RequireFromString("2.00"),
	}
}

// Hours is a worked day split into decimal hours, each rounded to two places.
type Hours struct {
	Net      decimal.Decimal
	Ordinary decimal.Decimal
	Overtime decimal.Decimal
}

// Split computes net, ordinary and overtime hours between two punches. Arithmetic runs on
// whole seconds; rounding is half-up to two decimals.
func (p Policy) Split(clockIn, clockOut time.Time) Hours {
	gross := int64(clockOut.Sub(clockIn) / time.Second)
	if gross < 0 {
		gross = 0
	}
	net := gross
	if gross > int64(p.MealBreakThreshold/time.Second) {
		net -= int64(p.MealBreak / time.Second)
	}
	capSec := int64(p.DailyCap / time.Second)
	ordinary, overtime := net, int64(0)
	if net > capSec {
		ordinary, overtime = capSec, net-capSec
	}
	return Hours{
		Net:      toHours(net),
		Ordinary: toHours(ordinary),
		Overtime: toHours(overtime),
	}
}

func toHours(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).DivRound(secondsPerHour, 2)
}

// Multiplier is the overtime surcharge factor for a day of the week.
func (p Policy) Multiplier(day time.Weekday) decimal.Decimal {
	switch day {
	case time.Saturday:
		return p.SaturdayMultiplier
	case time.Sunday:
		return p.SundayMultiplier
	default:
		return p.WeekdayMultiplier
	}
}

// Premium prices overtime hours at rate times the day's multiplier, rounded to cents.
func (p Policy) Premium(overtimeHours decimal.Decimal, day time.Weekday, rate decimal.Decimal) decimal.Decimal {
	return overtimeHours.Mul(rate).Mul(p.Multiplier(day)).Round(2)
}

// OrdinaryCost prices ordinary hours at the plain rate.
func (p Policy) OrdinaryCost(ordinaryHours, rate decimal.Decimal) decimal.Decimal {
	return ordinaryHours.Mul(rate).Round(2)
}
