package model

import (
	"strings"
	"time"
)

// DateLayout 文本边界上的日期格式（ISO 8601）
const DateLayout = "2006-01-02"

// DateOf 截取日历日，统一为 UTC 零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date 构造日历日
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate 输出 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddMonths 按整月累加，保持日号；目标月份不足时取月末
//
// time.AddDate 会把 1 月 31 日 + 1 个月规范化为 3 月初，这里需要 2 月末。
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	total := int(m) - 1 + months
	y += total / 12
	mi := total % 12
	if mi < 0 {
		mi += 12
		y--
	}
	month := time.Month(mi + 1)

	if last := daysIn(y, month); d > last {
		d = last
	}
	return time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
