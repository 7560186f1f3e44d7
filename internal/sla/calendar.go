package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TargetUnit enumerates supported duration units.
type TargetUnit string

const (
	UnitMinutes TargetUnit = "minutes"
	UnitHours   TargetUnit = "hours"
	UnitDays    TargetUnit = "days"
)

// Target is a duration target to apply from a start instant.
type Target struct {
	Time int
	Unit TargetUnit
}

// DueDateStrategy converts a start instant and a target into a due instant.
// Implementations may honor the policy's business-hours schedule and holiday
// list or ignore them.
type DueDateStrategy interface {
	DueAt(start time.Time, target Target, schedule *domain.BusinessHoursSchedule, holidays []string) time.Time
}

// Calendar computes SLA due instants through a pluggable strategy.
type Calendar struct {
	strategy DueDateStrategy
}

// NewCalendar returns a calendar using the elapsed-time strategy.
func NewCalendar() *Calendar {
	return &Calendar{strategy: ElapsedTimeStrategy{}}
}

// NewCalendarWithStrategy returns a calendar using the given strategy.
func NewCalendarWithStrategy(strategy DueDateStrategy) *Calendar {
	return &Calendar{strategy: strategy}
}

// DueAt returns the due instant for the target. Always returns a value.
func (c *Calendar) DueAt(start time.Time, target Target, schedule *domain.BusinessHoursSchedule, holidays []string) time.Time {
	return c.strategy.DueAt(start, target, schedule, holidays)
}

// ElapsedTimeStrategy is the default strategy: plain start+duration addition.
// The business-hours schedule and holidays are accepted but not consulted,
// matching the behavior existing tenants depend on. An unknown unit leaves
// the start instant unmodified.
type ElapsedTimeStrategy struct{}

func (ElapsedTimeStrategy) DueAt(start time.Time, target Target, _ *domain.BusinessHoursSchedule, _ []string) time.Time {
	switch target.Unit {
	case UnitMinutes:
		return start.Add(time.Duration(target.Time) * time.Minute)
	case UnitHours:
		return start.Add(time.Duration(target.Time) * time.Hour)
	case UnitDays:
		return start.AddDate(0, 0, target.Time)
	default:
		return start
	}
}
