package model

import "time"

// Training 培训项目
type Training struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// IntervalMonths 复训间隔（整月）；为空表示参加一次即永久有效
	IntervalMonths *int `json:"intervalMonths,omitempty"`
}

// Interval 返回有效的复训间隔；缺失或非正数视为无间隔
func (t Training) Interval() (int, bool) {
	if t.IntervalMonths == nil || *t.IntervalMonths <= 0 {
		return 0, false
	}
	return *t.IntervalMonths, true
}

// TrainingSession 培训场次
type TrainingSession struct {
	ID         int64     `json:"id"`
	TrainingID int64     `json:"trainingId"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location,omitempty"`
}

// Months 构造间隔指针，便于字面量初始化
func Months(n int) *int {
	return &n
}
