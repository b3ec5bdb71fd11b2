package compliance

import (
	"time"

	"mimir/internal/model"
)

// AttendanceIndex 员工参训记录索引：培训 ID -> 最近一次参加日期
type AttendanceIndex struct {
	latest map[int64]time.Time
}

// NewAttendanceIndex 基于员工已参加的场次构建索引
func NewAttendanceIndex(sessions []model.TrainingSession) *AttendanceIndex {
	idx := &AttendanceIndex{latest: make(map[int64]time.Time, len(sessions))}
	for _, s := range sessions {
		// 未关联培训的场次不满足任何要求
		if s.TrainingID == 0 {
			continue
		}
		d := model.DateOf(s.Date)
		if cur, ok := idx.latest[s.TrainingID]; !ok || d.After(cur) {
			idx.latest[s.TrainingID] = d
		}
	}
	return idx
}

// LastAttended 查询最近一次参加日期
func (idx *AttendanceIndex) LastAttended(trainingID int64) (time.Time, bool) {
	if idx == nil {
		return time.Time{}, false
	}
	d, ok := idx.latest[trainingID]
	return d, ok
}

// LastAttendedDate 员工最近一次参加指定培训的日期；从未参加时 ok=false
func LastAttendedDate(e model.Employee, trainingID int64) (time.Time, bool) {
	return NewAttendanceIndex(e.AttendedSessions).LastAttended(trainingID)
}
