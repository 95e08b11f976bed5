package engine

import (
	"testing"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulatorFixture() (*Simulator, *EligibilityInput) {
	slots, roster := slotFixture()
	sim := NewSimulator(slots, NewCalendar(nil))

	// 本周周一到周六出诊
	weekRosters := make([]*domain.DoctorRoster, 0, 6)
	for offset := 1; offset <= 6; offset++ {
		weekRosters = append(weekRosters, &domain.DoctorRoster{
			Department:  "内科",
			Date:        date(2026, time.August, 2).AddDate(0, 0, offset),
			DoctorCodes: []string{"D1", "D2"},
		})
	}

	in := &EligibilityInput{
		Staff:                     &domain.Staff{ID: 1, Category: "组长", WeeklyTarget: 4, IsActive: true},
		Date:                      date(2026, time.August, 4),
		Type:                      domain.LeaveTypeOff,
		WeekRosters:               weekRosters,
		ApprovedOffsInWeek:        0,
		WeeklyMinimum:             4,
		Roster:                    roster,
		TotalCategoryStaff:        4,
		ApprovedLeaveCountForDate: 0,
		WindowLength:              20,
		AdjustedMinimumTotal:      8,
		ApprovedLeaveDaysInWindow: 0,
		SelectedInWindow:          0,
	}

	return sim, in
}

func TestSimulator_AllowsWhenAllChecksPass(t *testing.T) {
	sim, in := simulatorFixture()

	verdict := sim.Evaluate(in)
	assert.True(t, verdict.Allowed)
	assert.Empty(t, verdict.FailedCheck)
}

func TestSimulator_WeeklyCapDeniesWithMargin(t *testing.T) {
	sim, in := simulatorFixture()

	// 6 个出诊日，已批准 1 天，再勾选 1 天加本次 → 可工作 3 天 < 保底 4 天
	in.ApprovedOffsInWeek = 1
	in.SelectedSameWeek = []time.Time{date(2026, time.August, 6)}

	verdict := sim.Evaluate(in)
	require.False(t, verdict.Allowed)
	assert.Equal(t, CheckWeeklyCap, verdict.FailedCheck)
	assert.InDelta(t, 1.0, verdict.Margin, 1e-9)
}

// 资格对称性：如果以差距 M 被每周上限拒绝，那么占用更多可工作日的请求也必须被拒绝
func TestSimulator_WeeklyCapDenialIsMonotonic(t *testing.T) {
	sim, in := simulatorFixture()

	in.ApprovedOffsInWeek = 1
	in.SelectedSameWeek = []time.Time{date(2026, time.August, 6)}

	base := sim.Evaluate(in)
	require.False(t, base.Allowed)

	in.SelectedSameWeek = append(in.SelectedSameWeek, date(2026, time.August, 7))
	worse := sim.Evaluate(in)
	require.False(t, worse.Allowed)
	assert.Equal(t, CheckWeeklyCap, worse.FailedCheck)
	assert.Greater(t, worse.Margin, base.Margin)
}

func TestSimulator_HolidayReducesWorkableDays(t *testing.T) {
	slots, roster := slotFixture()
	sim := NewSimulator(slots, NewCalendar([]*domain.Holiday{
		{Date: date(2026, time.August, 7), Name: "院庆"},
	}))

	_, in := simulatorFixture()
	in.Roster = roster

	// 6 个出诊日减 1 个节假日再减本次请假 → 可工作 4 天，恰好达标
	verdict := sim.Evaluate(in)
	assert.True(t, verdict.Allowed)

	// 再多一天请假就跌破保底
	in.ApprovedOffsInWeek = 1
	verdict = sim.Evaluate(in)
	require.False(t, verdict.Allowed)
	assert.Equal(t, CheckWeeklyCap, verdict.FailedCheck)
}

func TestSimulator_CategorySlotDenies(t *testing.T) {
	sim, in := simulatorFixture()

	// 组长最低在岗 2 人、在职 4 人、已有 2 人请假
	in.ApprovedLeaveCountForDate = 2

	verdict := sim.Evaluate(in)
	require.False(t, verdict.Allowed)
	assert.Equal(t, CheckCategorySlot, verdict.FailedCheck)
	assert.Contains(t, verdict.Reason, "最低在岗")
}

func TestSimulator_FairnessAllowanceDenies(t *testing.T) {
	sim, in := simulatorFixture()

	// 窗口 20 天、调整后最低排班 8 天、已批准 10 天 → 额度只剩 2 天
	in.ApprovedLeaveDaysInWindow = 10
	in.SelectedInWindow = 2

	verdict := sim.Evaluate(in)
	require.False(t, verdict.Allowed)
	assert.Equal(t, CheckFairnessAllowance, verdict.FailedCheck)
	assert.InDelta(t, 1.0, verdict.Margin, 1e-9)
}

// 分组余量充足不代表可以放行：公平性额度耗尽时整体评估仍然要拒绝，
// 审批放行前必须走完整评估而不能只看余量
func TestSimulator_FairnessDeniesEvenWhenSlotIsFree(t *testing.T) {
	sim, in := simulatorFixture()

	// 窗口 20 天、调整后最低排班 8 天、已批准 12 天 → 额度已经用光
	in.ApprovedLeaveDaysInWindow = 12

	require.False(t, sim.CheckSlot(in).ShouldHold)

	verdict := sim.Evaluate(in)
	require.False(t, verdict.Allowed)
	assert.Equal(t, CheckFairnessAllowance, verdict.FailedCheck)
}

// 模拟器只读：同样的输入反复求值结果一致
func TestSimulator_EvaluateIsIdempotent(t *testing.T) {
	sim, in := simulatorFixture()
	in.ApprovedLeaveCountForDate = 2

	first := sim.Evaluate(in)
	second := sim.Evaluate(in)
	assert.Equal(t, first, second)
}
