package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mimir/internal/model"
)

var (
	firstAid = model.Training{ID: 1, Title: "Erste Hilfe", IntervalMonths: model.Months(24)}
	fire     = model.Training{ID: 2, Title: "Brandschutz", IntervalMonths: model.Months(12)}
	onboard  = model.Training{ID: 3, Title: "Datenschutz Einweisung"}

	targetDay = model.Date(2026, time.October, 17)
)

func session(id, trainingID int64, d time.Time) model.TrainingSession {
	return model.TrainingSession{ID: id, TrainingID: trainingID, Date: d}
}

func TestLastAttendedDate(t *testing.T) {
	e := model.Employee{
		ID: 1,
		AttendedSessions: []model.TrainingSession{
			session(1, firstAid.ID, model.Date(2022, time.March, 1)),
			session(2, firstAid.ID, model.Date(2024, time.June, 10)),
			session(3, firstAid.ID, model.Date(2024, time.June, 10)),
			session(4, fire.ID, model.Date(2025, time.January, 5)),
			session(5, 0, model.Date(2026, time.January, 1)),
		},
	}

	got, ok := LastAttendedDate(e, firstAid.ID)
	require.True(t, ok)
	assert.Equal(t, model.Date(2024, time.June, 10), got)

	got, ok = LastAttendedDate(e, fire.ID)
	require.True(t, ok)
	assert.Equal(t, model.Date(2025, time.January, 5), got)

	_, ok = LastAttendedDate(e, onboard.ID)
	assert.False(t, ok)

	_, ok = LastAttendedDate(model.Employee{}, firstAid.ID)
	assert.False(t, ok, "nil session set")
}

func TestDueTrainingsFor_EmptyMandatorySet(t *testing.T) {
	assert.Empty(t, DueTrainingsFor(model.Employee{ID: 1}, targetDay))
	assert.Empty(t, DueTrainingsFor(model.Employee{ID: 1, MandatoryTrainings: []model.Training{}}, targetDay))
}

func TestDueTrainingsFor_NeverAttended(t *testing.T) {
	e := model.Employee{ID: 1, MandatoryTrainings: []model.Training{firstAid}}

	for _, target := range []time.Time{
		model.Date(1999, time.January, 1),
		targetDay,
		model.Date(2100, time.December, 31),
	} {
		due := DueTrainingsFor(e, target)
		require.Len(t, due, 1)
		assert.True(t, due[firstAid.ID].Outcome.IsNever())
		assert.True(t, due[firstAid.ID].LastAttended.IsZero())
	}
}

// 24 个月间隔，25 个月前参加 -> 上次 + 24 个月到期，且早于今天
func TestDueTrainingsFor_IntervalElapsed(t *testing.T) {
	last := model.AddMonths(targetDay, -25)
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{firstAid},
		AttendedSessions:   []model.TrainingSession{session(1, firstAid.ID, last)},
	}

	due := DueTrainingsFor(e, targetDay)
	require.Len(t, due, 1)

	d, ok := due[firstAid.ID].Outcome.Date()
	require.True(t, ok)
	assert.Equal(t, model.AddMonths(last, 24), d)
	assert.Equal(t, last, due[firstAid.ID].LastAttended)
	assert.Equal(t, StatusOverdue, due[firstAid.ID].Status(targetDay))
}

// 12 个月间隔，6 个月前参加 -> 未到期
func TestDueTrainingsFor_IntervalNotElapsed(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{fire},
		AttendedSessions:   []model.TrainingSession{session(1, fire.ID, model.AddMonths(targetDay, -6))},
	}
	assert.Empty(t, DueTrainingsFor(e, targetDay))
}

func TestDueTrainingsFor_DueExactlyOnTarget(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{fire},
		AttendedSessions:   []model.TrainingSession{session(1, fire.ID, model.AddMonths(targetDay, -12))},
	}

	due := DueTrainingsFor(e, targetDay)
	require.Len(t, due, 1)
	d, ok := due[fire.ID].Outcome.Date()
	require.True(t, ok)
	assert.Equal(t, targetDay, d)
	assert.False(t, due[fire.ID].Outcome.IsNever(), "computed date equal to target must stay distinguishable from never")

	// 前一天 -> 不到期
	assert.Empty(t, DueTrainingsFor(e, targetDay.AddDate(0, 0, -1)))
}

func TestDueTrainingsFor_NoIntervalNeverReappears(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{onboard},
		AttendedSessions:   []model.TrainingSession{session(1, onboard.ID, model.Date(2010, time.May, 1))},
	}

	for _, target := range []time.Time{targetDay, model.Date(2050, time.January, 1), model.Date(2999, time.January, 1)} {
		assert.Empty(t, DueTrainingsFor(e, target))
	}
}

func TestDueTrainingsFor_MalformedIntervalTreatedAsNone(t *testing.T) {
	bad := model.Training{ID: 9, Title: "Kaputt", IntervalMonths: model.Months(-3)}
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{bad},
		AttendedSessions:   []model.TrainingSession{session(1, bad.ID, model.Date(2020, time.May, 1))},
	}
	assert.Empty(t, DueTrainingsFor(e, targetDay))
}

func TestDueTrainingsFor_UsesMostRecentSession(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{fire},
		AttendedSessions: []model.TrainingSession{
			session(1, fire.ID, model.Date(2020, time.January, 1)),
			session(2, fire.ID, model.Date(2026, time.June, 1)),
		},
	}
	assert.Empty(t, DueTrainingsFor(e, targetDay))
}

func TestDueTrainingsFor_MultipleTrainings(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{firstAid, fire, onboard},
		AttendedSessions: []model.TrainingSession{
			session(1, fire.ID, model.Date(2025, time.March, 31)),
			session(2, onboard.ID, model.Date(2025, time.March, 31)),
		},
	}

	due := DueTrainingsFor(e, targetDay)
	require.Len(t, due, 2)
	assert.True(t, due[firstAid.ID].Outcome.IsNever())

	d, ok := due[fire.ID].Outcome.Date()
	require.True(t, ok)
	assert.Equal(t, model.Date(2026, time.March, 31), d)

	sorted := due.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "Brandschutz", sorted[0].Training.Title)
	assert.Equal(t, "Erste Hilfe", sorted[1].Training.Title)
}

func TestDueTrainingsFor_Idempotent(t *testing.T) {
	e := model.Employee{
		ID:                 1,
		MandatoryTrainings: []model.Training{firstAid, fire},
		AttendedSessions:   []model.TrainingSession{session(1, fire.ID, model.Date(2024, time.February, 29))},
	}
	assert.Equal(t, DueTrainingsFor(e, targetDay), DueTrainingsFor(e, targetDay))
}

func TestDueOutcome_OverdueAt(t *testing.T) {
	today := model.Date(2026, time.October, 17)

	assert.True(t, Never().OverdueAt(today))
	assert.True(t, DueOn(today.AddDate(0, 0, -1)).OverdueAt(today))
	assert.False(t, DueOn(today).OverdueAt(today))
	assert.False(t, DueOn(today.AddDate(0, 0, 1)).OverdueAt(today))

	assert.Equal(t, "never", Never().String())
	assert.Equal(t, "2026-10-17", DueOn(today).String())
}
