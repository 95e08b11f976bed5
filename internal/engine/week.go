package engine

import "time"

// Midnight 将时间截断到当天零点，引擎内部所有日期都以此为准
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateKey 日期在引擎内部统一使用的键
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekStart 返回 t 所在周的周日零点，周固定以周日为起点
func WeekStart(t time.Time) time.Time {
	t = Midnight(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// WeekKey 同一周（周日起点）内的所有日期返回相同的键。
// 旧系统中存在按年积日和按周日偏移两种互相矛盾的周编号算法，
// 跨年时会得到不同的结果，这里统一为直接使用所在周周日的日期，
// 不存在歧义也不需要周序号。
func WeekKey(t time.Time) string {
	return WeekStart(t).Format("2006-01-02")
}

// SameWeek 判断两个日期是否落在同一周
func SameWeek(a, b time.Time) bool {
	return WeekKey(a) == WeekKey(b)
}
