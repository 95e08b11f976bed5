package engine

import (
	"testing"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 一周出诊表：周一到周五，组长每天 1 人、组员每天 2 人
func fairnessFixture() (*RequirementResolver, []*domain.DoctorRoster) {
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{
		{
			Department:    "内科",
			DoctorKey:     "D1",
			HasNightShift: false,
			TotalRequired: 3,
			Categories: map[string]domain.CategoryRequirement{
				"组长": {Count: 1, Minimum: 1},
				"组员": {Count: 2, Minimum: 1},
			},
		},
		{
			Department:    "内科",
			DoctorKey:     "D1",
			HasNightShift: true,
			TotalRequired: 3,
			Categories: map[string]domain.CategoryRequirement{
				"组长": {Count: 1, Minimum: 1},
				"组员": {Count: 2, Minimum: 1},
			},
		},
	})

	rosters := make([]*domain.DoctorRoster, 0, 5)
	for offset := 1; offset <= 5; offset++ {
		rosters = append(rosters, &domain.DoctorRoster{
			Department:  "内科",
			Date:        date(2026, time.August, 2).AddDate(0, 0, offset),
			DoctorCodes: []string{"D1"},
		})
	}

	return resolver, rosters
}

func TestCategoryBaselines_UsesOwnCategoryOnly(t *testing.T) {
	resolver, rosters := fairnessFixture()
	calc := NewFairnessCalculator(resolver, NewCalendar(nil))

	// 组长每天 1 个槽位、5 天、2 名组长 → 基线 2.5
	leads := calc.CategoryBaselines(rosters, "组长", 2)
	assert.InDelta(t, 2.5, leads[DimensionTotal], 1e-9)

	// 组员每天 2 个槽位、5 天、4 名组员 → 基线 2.5
	members := calc.CategoryBaselines(rosters, "组员", 4)
	assert.InDelta(t, 2.5, members[DimensionTotal], 1e-9)

	// 周一到周五，没有周末和节假日槽位
	assert.Zero(t, leads[DimensionWeekend])
	assert.Zero(t, leads[DimensionHoliday])
	assert.Zero(t, leads[DimensionNight])
}

func TestCategoryBaselines_NightWeekendHolidayDimensions(t *testing.T) {
	resolver, rosters := fairnessFixture()

	// 周五设为节假日，则周四和周六命中节假日相邻维度
	holiday := date(2026, time.August, 7)
	calendar := NewCalendar([]*domain.Holiday{{Date: holiday, Name: "院庆"}})
	calc := NewFairnessCalculator(resolver, calendar)

	// 周六加一天夜诊
	rosters = append(rosters, &domain.DoctorRoster{
		Department:    "内科",
		Date:          date(2026, time.August, 8),
		DoctorCodes:   []string{"D1"},
		HasNightShift: true,
	})

	sums := calc.RequiredSlotSums(rosters, "组长")
	assert.InDelta(t, 6.0, sums[DimensionTotal], 1e-9)
	assert.InDelta(t, 1.0, sums[DimensionNight], 1e-9)   // 周六夜诊
	assert.InDelta(t, 1.0, sums[DimensionWeekend], 1e-9) // 周六
	assert.InDelta(t, 1.0, sums[DimensionHoliday], 1e-9) // 周五
	// 节假日相邻：周四和周六
	assert.InDelta(t, 2.0, sums[DimensionHolidayAdjacent], 1e-9)
}

func TestAdjustedMinimum(t *testing.T) {
	// 基线 5.0，累计偏差 +3.0 → 调整后最低排班数 8
	assert.Equal(t, int32(8), AdjustedMinimum(5.0, 3.0))

	// 负偏差把最低排班数往下压，但不会低于 0
	assert.Equal(t, int32(2), AdjustedMinimum(5.0, -3.0))
	assert.Equal(t, int32(0), AdjustedMinimum(2.0, -6.0))

	// 四舍五入
	assert.Equal(t, int32(6), AdjustedMinimum(5.0, 0.5))
	assert.Equal(t, int32(5), AdjustedMinimum(5.0, 0.4))
}

func TestClosePeriod_DeviationAccumulates(t *testing.T) {
	resolver, rosters := fairnessFixture()
	calc := NewFairnessCalculator(resolver, NewCalendar(nil))

	staffs := []*domain.Staff{
		{ID: 1, Category: "组长", IsActive: true},
		{ID: 2, Category: "组长", IsActive: true},
	}

	// 组长基线 2.5；1 号实际工作 3 天、2 号 2 天
	assignments := []*domain.ShiftAssignment{}
	for offset := 1; offset <= 3; offset++ {
		assignments = append(assignments, &domain.ShiftAssignment{
			StaffID: 1, Date: date(2026, time.August, 2).AddDate(0, 0, offset), Kind: domain.ShiftWorkDay,
		})
	}
	for offset := 4; offset <= 5; offset++ {
		assignments = append(assignments, &domain.ShiftAssignment{
			StaffID: 2, Date: date(2026, time.August, 2).AddDate(0, 0, offset), Kind: domain.ShiftWorkDay,
		})
	}

	previous := map[int64]Deviations{
		1: {DimensionTotal: 1.0},
	}

	result := calc.ClosePeriod(rosters, staffs, previous, assignments)
	require.Len(t, result, 2)

	// 新偏差 = 上期 + 基线 − 实际
	assert.InDelta(t, 1.0+2.5-3.0, result[1][DimensionTotal], 1e-9)
	assert.InDelta(t, 0.0+2.5-2.0, result[2][DimensionTotal], 1e-9)
}

func TestClosePeriod_DeviationConservation(t *testing.T) {
	resolver, rosters := fairnessFixture()
	calc := NewFairnessCalculator(resolver, NewCalendar(nil))

	staffs := []*domain.Staff{
		{ID: 1, Category: "组员", IsActive: true},
		{ID: 2, Category: "组员", IsActive: true},
		{ID: 3, Category: "组员", IsActive: true},
		{ID: 4, Category: "组员", IsActive: true},
	}

	// 组员窗口内共 10 个槽位，实际分配 3/3/2/2，正好用完
	assignments := []*domain.ShiftAssignment{}
	actuals := map[int64]int{1: 3, 2: 3, 3: 2, 4: 2}
	for staffID, days := range actuals {
		for offset := 1; offset <= days; offset++ {
			assignments = append(assignments, &domain.ShiftAssignment{
				StaffID: staffID,
				Date:    date(2026, time.August, 2).AddDate(0, 0, offset),
				Kind:    domain.ShiftWorkDay,
			})
		}
	}

	result := calc.ClosePeriod(rosters, staffs, nil, assignments)

	// 偏差只做再分配，不会凭空产生或消灭需求
	sum := 0.0
	for _, dev := range result {
		sum += dev[DimensionTotal]
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
}

func TestActualCounts_LeaveLinkedOffDoesNotCount(t *testing.T) {
	resolver, _ := fairnessFixture()
	calc := NewFairnessCalculator(resolver, NewCalendar(nil))

	leaveID := int64(7)
	actual := calc.ActualCounts([]*domain.ShiftAssignment{
		{StaffID: 1, Date: date(2026, time.August, 3), Kind: domain.ShiftWorkDay},
		{StaffID: 1, Date: date(2026, time.August, 4), Kind: domain.ShiftOff, LeaveID: &leaveID},
		{StaffID: 1, Date: date(2026, time.August, 8), Kind: domain.ShiftWorkNight},
	})

	require.Contains(t, actual, int64(1))
	assert.InDelta(t, 2.0, actual[1][DimensionTotal], 1e-9)
	assert.InDelta(t, 1.0, actual[1][DimensionNight], 1e-9)
	assert.InDelta(t, 1.0, actual[1][DimensionWeekend], 1e-9)
}
