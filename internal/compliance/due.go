package compliance

import (
	"sort"
	"time"

	"mimir/internal/model"
)

// Status 行状态
type Status string

const (
	StatusCurrent Status = "current" // 无到期培训
	StatusDue     Status = "due"     // 截至目标日期到期
	StatusOverdue Status = "overdue" // 早于今天到期，或从未参加
)

// DueOutcome 到期结论：Never（从未参加，立即到期）或 DueOn(日期)
//
// 用显式的标签而不是零值日期表示“从未参加”，与“计算出的日期恰好等于目标日期”区分开。
type DueOutcome struct {
	never bool
	date  time.Time
}

// Never 从未参加
func Never() DueOutcome {
	return DueOutcome{never: true}
}

// DueOn 在指定日期到期
func DueOn(d time.Time) DueOutcome {
	return DueOutcome{date: model.DateOf(d)}
}

// IsNever 是否为“从未参加”
func (o DueOutcome) IsNever() bool {
	return o.never
}

// Date 计算出的到期日；Never 时 ok=false
func (o DueOutcome) Date() (time.Time, bool) {
	if o.never {
		return time.Time{}, false
	}
	return o.date, true
}

// OverdueAt 相对于 today 是否已逾期
func (o DueOutcome) OverdueAt(today time.Time) bool {
	if o.never {
		return true
	}
	return o.date.Before(model.DateOf(today))
}

func (o DueOutcome) String() string {
	if o.never {
		return "never"
	}
	return model.FormatDate(o.date)
}

// DueTraining 单个到期培训
type DueTraining struct {
	Training model.Training
	Outcome  DueOutcome

	// LastAttended 最近参加日期；Outcome 为 Never 时为零值
	LastAttended time.Time
}

// Status 相对于 today 的行状态
func (d DueTraining) Status(today time.Time) Status {
	if d.Outcome.OverdueAt(today) {
		return StatusOverdue
	}
	return StatusDue
}

// DueTrainings 到期培训集合，按培训 ID 去重
type DueTrainings map[int64]DueTraining

// Sorted 按培训名称、ID 排序，供报表稳定输出
func (d DueTrainings) Sorted() []DueTraining {
	out := make([]DueTraining, 0, len(d))
	for _, it := range d {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Training.Title != out[j].Training.Title {
			return out[i].Training.Title < out[j].Training.Title
		}
		return out[i].Training.ID < out[j].Training.ID
	})
	return out
}

// OverdueCount 相对于 today 的逾期条目数
func (d DueTrainings) OverdueCount(today time.Time) int {
	n := 0
	for _, it := range d {
		if it.Outcome.OverdueAt(today) {
			n++
		}
	}
	return n
}

// DueTrainingsFor 计算员工截至 targetDate 需要参加的培训
//
//   - 从未参加：Never
//   - 已参加且有间隔：上次日期 + 间隔月数 <= targetDate 时记为 DueOn
//   - 已参加且无间隔：永久有效，不再到期
func DueTrainingsFor(e model.Employee, targetDate time.Time) DueTrainings {
	due := DueTrainings{}
	if len(e.MandatoryTrainings) == 0 {
		return due
	}

	target := model.DateOf(targetDate)
	attendance := NewAttendanceIndex(e.AttendedSessions)

	for _, t := range e.MandatoryTrainings {
		last, attended := attendance.LastAttended(t.ID)
		if !attended {
			due[t.ID] = DueTraining{Training: t, Outcome: Never()}
			continue
		}

		interval, ok := t.Interval()
		if !ok {
			continue
		}

		next := model.AddMonths(last, interval)
		if next.After(target) {
			continue
		}
		due[t.ID] = DueTraining{Training: t, Outcome: DueOn(next), LastAttended: last}
	}

	return due
}
