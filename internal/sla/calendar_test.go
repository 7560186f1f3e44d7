package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestElapsedTimeDueDates(t *testing.T) {
	cal := NewCalendar()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t,
		time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		cal.DueAt(start, Target{Time: 60, Unit: UnitMinutes}, nil, nil))

	assert.Equal(t,
		time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC),
		cal.DueAt(start, Target{Time: 4, Unit: UnitHours}, nil, nil))

	assert.Equal(t,
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		cal.DueAt(start, Target{Time: 2, Unit: UnitDays}, nil, nil))
}

func TestUnknownUnitLeavesStartUnmodified(t *testing.T) {
	cal := NewCalendar()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, start, cal.DueAt(start, Target{Time: 10, Unit: "fortnights"}, nil, nil))
}

func TestScheduleAndHolidaysIgnoredByDefaultStrategy(t *testing.T) {
	cal := NewCalendar()
	start := time.Date(2024, 12, 24, 23, 30, 0, 0, time.UTC)
	schedule := &domain.BusinessHoursSchedule{
		Enabled:  true,
		Timezone: "UTC",
		Days: map[time.Weekday][]domain.BusinessWindow{
			time.Monday: {{Start: "09:00", End: "17:00"}},
		},
	}

	due := cal.DueAt(start, Target{Time: 60, Unit: UnitMinutes}, schedule, []string{"2024-12-25"})
	assert.Equal(t, start.Add(time.Hour), due)
}
