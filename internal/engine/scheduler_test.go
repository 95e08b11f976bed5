package engine

import (
	"testing"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 一周批次：周一到周六出诊，护理分组每天 2 个槽位，4 名职工、每周目标 4 天
func schedulerFixture() *RunInput {
	batch := &domain.ScheduleBatch{
		ID:         1,
		Department: "内科",
		Period:     "2026-08",
		StartDate:  date(2026, time.August, 2),
		EndDate:    date(2026, time.August, 8),
		Status:     domain.BatchStatusAssigning,
	}

	staffs := make([]*domain.Staff, 0, 4)
	for id := int64(1); id <= 4; id++ {
		staffs = append(staffs, &domain.Staff{
			ID:           id,
			FullName:     "护理职工",
			Department:   "内科",
			Category:     "护理",
			WeeklyTarget: 4,
			IsActive:     true,
		})
	}

	rosters := make([]*domain.DoctorRoster, 0, 6)
	for offset := 1; offset <= 6; offset++ {
		rosters = append(rosters, &domain.DoctorRoster{
			Department:  "内科",
			Date:        date(2026, time.August, 2).AddDate(0, 0, offset),
			DoctorCodes: []string{"D1"},
		})
	}

	requirements := []*domain.StaffingRequirement{
		{
			Department:    "内科",
			DoctorKey:     "D1",
			TotalRequired: 2,
			Categories: map[string]domain.CategoryRequirement{
				"护理": {Count: 2, Minimum: 1},
			},
		},
	}

	return &RunInput{
		Batch:        batch,
		Staffs:       staffs,
		Rosters:      rosters,
		Requirements: requirements,
	}
}

// kindByStaffDate 把运行结果整理成 staffID → dateKey → 班种
func kindByStaffDate(result *RunResult) map[int64]map[string]domain.ShiftKind {
	m := make(map[int64]map[string]domain.ShiftKind)
	for _, a := range result.Mutations {
		if m[a.StaffID] == nil {
			m[a.StaffID] = make(map[string]domain.ShiftKind)
		}
		m[a.StaffID][DateKey(a.Date)] = a.Kind
	}
	return m
}

func TestScheduler_FillsSlotsAndReachesWeeklyTarget(t *testing.T) {
	in := schedulerFixture()
	result := NewRun(in).Execute()

	require.True(t, result.Success)
	assert.Empty(t, result.Issues)

	// 6 天 × 2 个槽位 = 12，再加上阶段二为达到每周 4 天翻转的 4 次 = 16
	assert.Equal(t, 16, result.AssignedCount)

	// 每个职工每个出诊日恰有一行
	byStaff := kindByStaffDate(result)
	require.Len(t, byStaff, 4)
	for staffID, days := range byStaff {
		assert.Len(t, days, 6, "staff %d", staffID)
	}

	// 每天：工作 + 休息 = 在职人数
	for offset := 1; offset <= 6; offset++ {
		key := DateKey(date(2026, time.August, 2).AddDate(0, 0, offset))
		total := 0
		for _, days := range byStaff {
			if _, exists := days[key]; exists {
				total++
			}
		}
		assert.Equal(t, 4, total, "date %s", key)
	}

	// 每个职工都达到每周目标 4 天
	for staffID, days := range byStaff {
		work := 0
		for _, kind := range days {
			if kind == domain.ShiftWorkDay {
				work++
			}
		}
		assert.Equal(t, 4, work, "staff %d", staffID)
	}
}

func TestScheduler_Phase1PrefersMostOwedThenLowestID(t *testing.T) {
	in := schedulerFixture()

	// 3 号职工上期欠班 +2，阶段一应当优先排他
	in.Profiles = []*domain.FairnessProfile{
		{StaffID: 3, Total: 2.0},
	}

	result := NewRun(in).Execute()
	byStaff := kindByStaffDate(result)

	// 周一的两个槽位：3 号（最欠班）和 1 号（并列时 ID 最小）
	monday := DateKey(date(2026, time.August, 3))
	assert.Equal(t, domain.ShiftWorkDay, byStaff[3][monday])
	assert.Equal(t, domain.ShiftWorkDay, byStaff[1][monday])
	assert.Equal(t, domain.ShiftOff, byStaff[2][monday])
}

func TestScheduler_Phase2TieBreakIsEarliestDate(t *testing.T) {
	in := schedulerFixture()
	result := NewRun(in).Execute()
	byStaff := kindByStaffDate(result)

	// 阶段一后 1 号职工在周二、周四、周六休息，三天的休息人数相同，
	// 平局时必须翻转最早的周二
	tuesday := DateKey(date(2026, time.August, 4))
	assert.Equal(t, domain.ShiftWorkDay, byStaff[1][tuesday])
}

func TestScheduler_NightFlagProducesNightShifts(t *testing.T) {
	in := schedulerFixture()
	for _, roster := range in.Rosters {
		roster.HasNightShift = true
	}
	in.Requirements = append(in.Requirements, &domain.StaffingRequirement{
		Department:    "内科",
		DoctorKey:     "D1",
		HasNightShift: true,
		TotalRequired: 2,
		Categories: map[string]domain.CategoryRequirement{
			"护理": {Count: 2, Minimum: 1},
		},
	})

	result := NewRun(in).Execute()
	for _, a := range result.Mutations {
		if a.Kind != domain.ShiftOff {
			assert.Equal(t, domain.ShiftWorkNight, a.Kind)
		}
	}
}

func TestScheduler_ConfigurationGapSkipsDateButKeepsRows(t *testing.T) {
	in := schedulerFixture()

	// 周三换了一个没有配置过的医生组合
	in.Rosters[2].DoctorCodes = []string{"D9"}

	result := NewRun(in).Execute()

	found := false
	for _, issue := range result.Issues {
		if issue.Code == IssueConfigurationGap {
			found = true
			assert.Equal(t, DateKey(in.Rosters[2].Date), issue.Date)
			assert.Equal(t, SeverityWarning, issue.Severity)
		}
	}
	assert.True(t, found)

	// 该日期没有被排班，但阶段四仍为所有职工补齐了休息行
	byStaff := kindByStaffDate(result)
	gapKey := DateKey(in.Rosters[2].Date)
	for staffID := int64(1); staffID <= 4; staffID++ {
		assert.Equal(t, domain.ShiftOff, byStaff[staffID][gapKey])
	}
}

func TestScheduler_SlotShortageIsIssueNotFailure(t *testing.T) {
	in := schedulerFixture()
	in.Staffs = in.Staffs[:1] // 只剩 1 人，每天 2 个槽位填不满

	result := NewRun(in).Execute()
	require.True(t, result.Success)

	shortages := 0
	for _, issue := range result.Issues {
		if issue.Code == IssueConstraintUnsatisfiable {
			shortages++
		}
	}
	assert.NotZero(t, shortages)
}

func TestScheduler_Phase2RespectsOffHeadcountFloor(t *testing.T) {
	in := schedulerFixture()
	in.Staffs = in.Staffs[:2]
	in.Requirements[0].Categories["护理"] = domain.CategoryRequirement{Count: 1, Minimum: 1}
	in.Requirements[0].TotalRequired = 1

	// 每天 1 个槽位轮流排班后每人 3 天；翻转任何一天都会抽干当天的休息池，
	// 因此保底缺口必须作为问题上报而不是强行翻转
	result := NewRun(in).Execute()
	require.True(t, result.Success)

	issued := map[int64]bool{}
	for _, issue := range result.Issues {
		if issue.Code == IssueConstraintUnsatisfiable && issue.StaffID != nil {
			issued[*issue.StaffID] = true
		}
	}
	assert.True(t, issued[1])
	assert.True(t, issued[2])
}

func TestScheduler_ReconcileAnnualLeaveKeepsWeeklyCount(t *testing.T) {
	in := schedulerFixture()
	in.ConfirmedLeaves = []*domain.LeaveApplication{
		{ID: 10, StaffID: 1, Date: date(2026, time.August, 4), Type: domain.LeaveTypeAnnual, Status: domain.LeaveStatusConfirmed},
	}

	result := NewRun(in).Execute()
	byStaff := kindByStaffDate(result)

	tuesday := DateKey(date(2026, time.August, 4))
	assert.Equal(t, domain.ShiftOff, byStaff[1][tuesday])

	var linked *domain.ShiftAssignment
	for _, a := range result.Mutations {
		if a.StaffID == 1 && DateKey(a.Date) == tuesday {
			linked = a
		}
	}
	require.NotNil(t, linked)
	require.NotNil(t, linked.LeaveID)
	assert.Equal(t, int64(10), *linked.LeaveID)

	// 年假计入每周工作天数，不应产生保底缺口问题
	for _, issue := range result.Issues {
		assert.NotEqual(t, IssueLeaveConflict, issue.Code)
	}
}

func TestScheduler_ReconcileOffLeaveReportsConflict(t *testing.T) {
	in := schedulerFixture()
	in.ConfirmedLeaves = []*domain.LeaveApplication{
		{ID: 11, StaffID: 2, Date: date(2026, time.August, 5), Type: domain.LeaveTypeOff, Status: domain.LeaveStatusConfirmed},
	}

	result := NewRun(in).Execute()
	byStaff := kindByStaffDate(result)

	// 排班已依赖该班次：转为休息后必须上报冲突，而不是悄悄丢掉
	wednesday := DateKey(date(2026, time.August, 5))
	assert.Equal(t, domain.ShiftOff, byStaff[2][wednesday])

	found := false
	for _, issue := range result.Issues {
		if issue.Code == IssueLeaveConflict && issue.StaffID != nil && *issue.StaffID == 2 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestScheduler_LeaveOnNonRosterDateCreatesLinkedRow(t *testing.T) {
	in := schedulerFixture()

	// 周日没有出诊表，但已批准的请假仍然要落一行关联的休息
	in.ConfirmedLeaves = []*domain.LeaveApplication{
		{ID: 12, StaffID: 3, Date: date(2026, time.August, 2), Type: domain.LeaveTypeOff, Status: domain.LeaveStatusConfirmed},
	}

	result := NewRun(in).Execute()

	var row *domain.ShiftAssignment
	for _, a := range result.Mutations {
		if a.StaffID == 3 && DateKey(a.Date) == "2026-08-02" {
			row = a
		}
	}
	require.NotNil(t, row)
	assert.Equal(t, domain.ShiftOff, row.Kind)
	require.NotNil(t, row.LeaveID)
	assert.Equal(t, int64(12), *row.LeaveID)
}

func TestScheduler_RerunOnConsistentWeekIsNoop(t *testing.T) {
	in := schedulerFixture()
	first := NewRun(in).Execute()
	require.NotEmpty(t, first.Mutations)

	// 模拟持久化：第一次的结果作为已有排班行传回
	existing := make([]*domain.ShiftAssignment, 0, len(first.Mutations))
	for i, a := range first.Mutations {
		persisted := *a
		persisted.ID = int64(i + 1)
		persisted.Version = 1
		existing = append(existing, &persisted)
	}
	in.Existing = existing

	second := NewRun(in).Execute()
	assert.Empty(t, second.Mutations)
	assert.Empty(t, second.Issues)
	assert.Equal(t, first.AssignedCount, second.AssignedCount)
}

// 排班三天：每天组长槽位 2 个、组员槽位 1 个；组长只有 1 人，
// 两名弹性组员中必须有一人每天顶到组长的槽位上
func flexibleFixture() *RunInput {
	batch := &domain.ScheduleBatch{
		ID:         2,
		Department: "内科",
		Period:     "2026-08",
		StartDate:  date(2026, time.August, 2),
		EndDate:    date(2026, time.August, 8),
		Status:     domain.BatchStatusAssigning,
	}

	staffs := []*domain.Staff{
		{ID: 1, FullName: "组长职工", Department: "内科", Category: "组长", WeeklyTarget: 3, IsActive: true},
		{ID: 2, FullName: "组员职工", Department: "内科", Category: "组员", WeeklyTarget: 3, IsFlexible: true, IsActive: true},
		{ID: 3, FullName: "组员职工", Department: "内科", Category: "组员", WeeklyTarget: 3, IsFlexible: true, IsActive: true},
	}

	rosters := make([]*domain.DoctorRoster, 0, 3)
	for offset := 1; offset <= 3; offset++ {
		rosters = append(rosters, &domain.DoctorRoster{
			Department:  "内科",
			Date:        date(2026, time.August, 2).AddDate(0, 0, offset),
			DoctorCodes: []string{"D1"},
		})
	}

	requirements := []*domain.StaffingRequirement{
		{
			Department:    "内科",
			DoctorKey:     "D1",
			TotalRequired: 3,
			Categories: map[string]domain.CategoryRequirement{
				"组长": {Count: 2, Minimum: 1},
				"组员": {Count: 1, Minimum: 1},
			},
		},
	}

	return &RunInput{
		Batch:        batch,
		Staffs:       staffs,
		Rosters:      rosters,
		Requirements: requirements,
	}
}

func TestScheduler_FlexibleStaffCoversOtherCategory(t *testing.T) {
	in := flexibleFixture()
	result := NewRun(in).Execute()

	require.True(t, result.Success)
	assert.Empty(t, result.Issues)

	// 每天 3 个槽位正好 3 人全勤，组长的缺口全部由弹性组员补上
	assert.Equal(t, 9, result.AssignedCount)
	for _, a := range result.Mutations {
		assert.NotEqual(t, domain.ShiftOff, a.Kind)
	}
}

func TestScheduler_FlexibleFillRerunIsNoop(t *testing.T) {
	in := flexibleFixture()
	first := NewRun(in).Execute()
	require.NotEmpty(t, first.Mutations)
	require.Empty(t, first.Issues)

	existing := make([]*domain.ShiftAssignment, 0, len(first.Mutations))
	for i, a := range first.Mutations {
		persisted := *a
		persisted.ID = int64(i + 1)
		persisted.Version = 1
		existing = append(existing, &persisted)
	}
	in.Existing = existing

	// 排班行里没有记录弹性职工顶的是哪个分组的槽位，
	// 重跑时必须重新归属，否则会误判组长槽位没填满
	second := NewRun(in).Execute()
	assert.Empty(t, second.Mutations)
	assert.Empty(t, second.Issues)
	assert.Equal(t, first.AssignedCount, second.AssignedCount)
}

func TestScheduler_InactiveStaffAreIgnored(t *testing.T) {
	in := schedulerFixture()
	in.Staffs[3].IsActive = false

	result := NewRun(in).Execute()
	byStaff := kindByStaffDate(result)
	assert.NotContains(t, byStaff, int64(4))
}
