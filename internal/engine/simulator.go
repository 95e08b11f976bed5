package engine

import (
	"fmt"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

type CheckKind string

const (
	CheckWeeklyCap         CheckKind = "WEEKLY_CAP"
	CheckCategorySlot      CheckKind = "CATEGORY_SLOT"
	CheckFairnessAllowance CheckKind = "FAIRNESS_ALLOWANCE"
)

// EligibilityInput 一次请假资格模拟所需的数据快照，由调用方从当前状态装配。
// 模拟器本身只读、幂等，可以和正在运行的排班批次并发调用。
type EligibilityInput struct {
	Staff            *domain.Staff
	Date             time.Time
	Type             domain.LeaveType
	SelectedSameWeek []time.Time // 同一次自助提交中已勾选的同周其它日期

	// 每周上限检查
	WeekRosters        []*domain.DoctorRoster // 所在周（周日起点）内有出诊的日期
	ApprovedOffsInWeek int32                  // 本周已批准的请假天数
	WeeklyMinimum      int32

	// 分组余量检查
	Roster                    *domain.DoctorRoster // 当天的出诊表，可以为 nil
	TotalCategoryStaff        int32
	ApprovedLeaveCountForDate int32
	AllowUnknownRequirement   bool

	// 公平性额度检查
	WindowLength              int32 // 评估窗口内的出诊日总数
	AdjustedMinimumTotal      int32 // 总维度的调整后最低排班数
	ApprovedLeaveDaysInWindow int32
	SelectedInWindow          int32 // 本次提交中已勾选的窗口内其它日期数
}

// Verdict 模拟结果；拒绝时带上未通过的检查和数值差距，便于前端展示
type Verdict struct {
	Allowed     bool      `json:"allowed"`
	FailedCheck CheckKind `json:"failedCheck,omitempty"`
	Margin      float64   `json:"margin,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// Simulator 请假资格模拟器，三项检查全部通过才允许提交
type Simulator struct {
	slots    *SlotService
	calendar *Calendar
}

func NewSimulator(slots *SlotService, calendar *Calendar) *Simulator {
	return &Simulator{
		slots:    slots,
		calendar: calendar,
	}
}

func (s *Simulator) Evaluate(in *EligibilityInput) Verdict {
	if v := s.checkWeeklyCap(in); !v.Allowed {
		return v
	}
	if v := s.checkCategorySlot(in); !v.Allowed {
		return v
	}
	if v := s.checkFairnessAllowance(in); !v.Allowed {
		return v
	}
	return Verdict{Allowed: true}
}

// checkWeeklyCap 可工作天数 = 本周出诊日 − 节假日 − (已批准请假 + 已勾选 + 本次)，
// 低于每周保底天数则拒绝
func (s *Simulator) checkWeeklyCap(in *EligibilityInput) Verdict {
	businessDays := int32(0)
	holidays := int32(0)
	for _, roster := range in.WeekRosters {
		businessDays++
		if s.calendar.IsHoliday(roster.Date) {
			holidays++
		}
	}

	selected := int32(0)
	for _, d := range in.SelectedSameWeek {
		if SameWeek(d, in.Date) && DateKey(d) != DateKey(in.Date) {
			selected++
		}
	}

	workable := businessDays - holidays - (in.ApprovedOffsInWeek + selected + 1)
	if workable < in.WeeklyMinimum {
		margin := float64(in.WeeklyMinimum - workable)
		return Verdict{
			Allowed:     false,
			FailedCheck: CheckWeeklyCap,
			Margin:      margin,
			Reason: fmt.Sprintf("请假后本周只剩 %d 个可工作日，低于保底 %d 天",
				workable, in.WeeklyMinimum),
		}
	}

	return Verdict{Allowed: true}
}

// CheckSlot 只执行分组余量检查
func (s *Simulator) CheckSlot(in *EligibilityInput) SlotAvailability {
	return s.slots.Check(
		in.Roster,
		in.Staff.Category,
		in.TotalCategoryStaff,
		in.ApprovedLeaveCountForDate,
		in.AllowUnknownRequirement,
	)
}

func (s *Simulator) checkCategorySlot(in *EligibilityInput) Verdict {
	availability := s.CheckSlot(in)

	if availability.ShouldHold {
		return Verdict{
			Allowed:     false,
			FailedCheck: CheckCategorySlot,
			Margin:      float64(availability.Available),
			Reason:      availability.Reason,
		}
	}

	return Verdict{Allowed: true}
}

// checkFairnessAllowance 可请假额度 = 窗口长度 − 调整后最低排班数 − 窗口内已批准请假天数
func (s *Simulator) checkFairnessAllowance(in *EligibilityInput) Verdict {
	maxAllowed := in.WindowLength - in.AdjustedMinimumTotal - in.ApprovedLeaveDaysInWindow
	requested := in.SelectedInWindow + 1

	if requested > maxAllowed {
		margin := float64(requested - maxAllowed)
		return Verdict{
			Allowed:     false,
			FailedCheck: CheckFairnessAllowance,
			Margin:      margin,
			Reason: fmt.Sprintf("按累计公平性偏差折算，窗口内最多还能请 %d 天，本次共选择了 %d 天",
				maxInt32(maxAllowed, 0), requested),
		}
	}

	return Verdict{Allowed: true}
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
