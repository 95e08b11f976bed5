package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart_AnchorsOnSunday(t *testing.T) {
	sunday := date(2026, time.August, 2)
	assert.Equal(t, time.Sunday, sunday.Weekday())

	// 周日本身就是一周的起点
	assert.Equal(t, sunday, WeekStart(sunday))

	// 周一到周六都归属同一个周日
	for offset := 1; offset <= 6; offset++ {
		assert.Equal(t, sunday, WeekStart(sunday.AddDate(0, 0, offset)))
	}

	// 下一个周日开启新的一周
	assert.Equal(t, sunday.AddDate(0, 0, 7), WeekStart(sunday.AddDate(0, 0, 7)))
}

func TestWeekKey_CrossYearWeekIsStable(t *testing.T) {
	// 2026-12-27 是周日，这一周横跨 2026 和 2027
	sunday := date(2026, time.December, 27)
	assert.Equal(t, time.Sunday, sunday.Weekday())

	newYearsDay := date(2027, time.January, 1)
	assert.Equal(t, WeekKey(sunday), WeekKey(newYearsDay))
	assert.Equal(t, "2026-12-27", WeekKey(newYearsDay))
}

func TestSameWeek(t *testing.T) {
	assert.True(t, SameWeek(date(2026, time.August, 3), date(2026, time.August, 8)))
	assert.False(t, SameWeek(date(2026, time.August, 8), date(2026, time.August, 9)))
}

func TestWeekStart_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, time.August, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2026, time.August, 2), WeekStart(late))
}
