package engine

import (
	"math"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

// Dimension 公平性维度
type Dimension string

const (
	DimensionTotal           Dimension = "total"
	DimensionNight           Dimension = "night"
	DimensionWeekend         Dimension = "weekend"
	DimensionHoliday         Dimension = "holiday"
	DimensionHolidayAdjacent Dimension = "holidayAdjacent"
)

var Dimensions = []Dimension{
	DimensionTotal,
	DimensionNight,
	DimensionWeekend,
	DimensionHoliday,
	DimensionHolidayAdjacent,
}

// Deviations 每个维度一个数值，既用于表示基线也用于表示累计偏差
type Deviations map[Dimension]float64

func NewDeviations() Deviations {
	d := make(Deviations, len(Dimensions))
	for _, dim := range Dimensions {
		d[dim] = 0
	}
	return d
}

// DeviationsFromProfile 从持久化的公平性档案中读出上一周期的累计偏差
func DeviationsFromProfile(p *domain.FairnessProfile) Deviations {
	d := NewDeviations()
	if p == nil {
		return d
	}
	d[DimensionTotal] = p.Total
	d[DimensionNight] = p.Night
	d[DimensionWeekend] = p.Weekend
	d[DimensionHoliday] = p.Holiday
	d[DimensionHolidayAdjacent] = p.HolidayAdjacent
	return d
}

// Calendar 节假日日历
type Calendar struct {
	holidays map[string]bool
}

func NewCalendar(holidays []*domain.Holiday) *Calendar {
	c := &Calendar{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[DateKey(h.Date)] = true
	}
	return c
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[DateKey(t)]
}

// IsHolidayAdjacent 当天不是节假日，但前一天或后一天是
func (c *Calendar) IsHolidayAdjacent(t time.Time) bool {
	if c.IsHoliday(t) {
		return false
	}
	return c.IsHoliday(t.AddDate(0, 0, -1)) || c.IsHoliday(t.AddDate(0, 0, 1))
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// FairnessCalculator 公平性计算器。
// 所有计算都按分组进行：不同分组每天的需求人数不同，
// 混在一起会悄悄算出错误的基线。
type FairnessCalculator struct {
	resolver *RequirementResolver
	calendar *Calendar
}

func NewFairnessCalculator(resolver *RequirementResolver, calendar *Calendar) *FairnessCalculator {
	return &FairnessCalculator{
		resolver: resolver,
		calendar: calendar,
	}
}

// dimensionsForDate 某一天命中的公平性维度
func (f *FairnessCalculator) dimensionsForDate(date time.Time, hasNightShift bool) []Dimension {
	dims := []Dimension{DimensionTotal}
	if hasNightShift {
		dims = append(dims, DimensionNight)
	}
	if IsWeekend(date) {
		dims = append(dims, DimensionWeekend)
	}
	if f.calendar.IsHoliday(date) {
		dims = append(dims, DimensionHoliday)
	}
	if f.calendar.IsHolidayAdjacent(date) {
		dims = append(dims, DimensionHolidayAdjacent)
	}
	return dims
}

// RequiredSlotSums 某分组在窗口内各维度的需求槽位总数。
// 没有匹配人力配置的日期不计入窗口。
func (f *FairnessCalculator) RequiredSlotSums(rosters []*domain.DoctorRoster, category string) Deviations {
	sums := NewDeviations()

	for _, roster := range rosters {
		resolved := f.resolver.Resolve(roster)
		cr, configured := resolved.Category(category)
		if !configured {
			continue
		}
		for _, dim := range f.dimensionsForDate(roster.Date, roster.HasNightShift) {
			sums[dim] += float64(cr.Count)
		}
	}

	return sums
}

// CategoryBaselines 基线 = 分组需求槽位总数 / 分组在职人数，
// 必须使用该分组自己的在职人数
func (f *FairnessCalculator) CategoryBaselines(rosters []*domain.DoctorRoster, category string, activeStaffInCategory int) Deviations {
	baselines := NewDeviations()
	if activeStaffInCategory <= 0 {
		return baselines
	}

	sums := f.RequiredSlotSums(rosters, category)
	for dim, sum := range sums {
		baselines[dim] = sum / float64(activeStaffInCategory)
	}

	return baselines
}

// ActualCounts 从排班结果统计每个职工在各维度上的实际工作天数。
// 只有 WORK_DAY / WORK_NIGHT 计入实际工作量，请假产生的 OFF 不算。
func (f *FairnessCalculator) ActualCounts(assignments []*domain.ShiftAssignment) map[int64]Deviations {
	actual := make(map[int64]Deviations)

	for _, a := range assignments {
		if a.Kind != domain.ShiftWorkDay && a.Kind != domain.ShiftWorkNight {
			continue
		}
		if _, exists := actual[a.StaffID]; !exists {
			actual[a.StaffID] = NewDeviations()
		}
		for _, dim := range f.dimensionsForDate(a.Date, a.Kind == domain.ShiftWorkNight) {
			actual[a.StaffID][dim]++
		}
	}

	return actual
}

// AdjustedMinimum 调整后最低排班数 = max(0, round(基线 + 上期偏差))，
// 排班阶段用它做优先级，请假模拟用它做额度上限
func AdjustedMinimum(baseline, previousDeviation float64) int32 {
	v := math.Round(baseline + previousDeviation)
	if v < 0 {
		return 0
	}
	return int32(v)
}

// ClosePeriod 周期结束（发布）时计算每个职工新的累计偏差：
// 新偏差 = 上期偏差 + 基线 − 实际。
// 正数表示欠班（下期应多排），负数表示超班。
func (f *FairnessCalculator) ClosePeriod(
	rosters []*domain.DoctorRoster,
	staffs []*domain.Staff,
	previous map[int64]Deviations,
	assignments []*domain.ShiftAssignment,
) map[int64]Deviations {
	// 按分组统计在职人数
	categoryCount := make(map[string]int)
	for _, st := range staffs {
		if st.IsActive {
			categoryCount[st.Category]++
		}
	}

	baselines := make(map[string]Deviations)
	for category, count := range categoryCount {
		baselines[category] = f.CategoryBaselines(rosters, category, count)
	}

	actual := f.ActualCounts(assignments)

	result := make(map[int64]Deviations, len(staffs))
	for _, st := range staffs {
		if !st.IsActive {
			continue
		}

		next := NewDeviations()
		prev := previous[st.ID]
		act := actual[st.ID]

		for _, dim := range Dimensions {
			p := 0.0
			if prev != nil {
				p = prev[dim]
			}
			a := 0.0
			if act != nil {
				a = act[dim]
			}
			next[dim] = p + baselines[st.Category][dim] - a
		}

		result[st.ID] = next
	}

	return result
}
