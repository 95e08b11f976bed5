package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/engine"
)

// buildEligibilityInput 从当前数据库状态装配一次请假资格模拟的快照。
// selected 是同一次提交中勾选的其它日期，会计入每周上限和公平性额度。
func (h *Handler) buildEligibilityInput(
	staff *domain.Staff,
	date time.Time,
	leaveType domain.LeaveType,
	selected []time.Time,
	allowUnknownRequirement bool,
) (*engine.EligibilityInput, *engine.Simulator, error) {
	weekStart := engine.WeekStart(date)
	weekEnd := weekStart.AddDate(0, 0, 6)

	weekRosters, err := h.repository.GetRostersByDepartmentAndRange(staff.Department, weekStart, weekEnd)
	if err != nil {
		return nil, nil, err
	}

	approvedOffs, err := h.repository.CountApprovedOffsInWeek(staff.ID, weekStart, weekEnd)
	if err != nil {
		return nil, nil, err
	}

	roster, err := h.repository.GetRosterByDepartmentAndDate(staff.Department, engine.Midnight(date))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		roster = nil
	}

	totalCategoryStaff, err := h.repository.CountActiveStaffByCategory(staff.Department, staff.Category)
	if err != nil {
		return nil, nil, err
	}

	approvedForDate, err := h.repository.CountApprovedLeavesByDateAndCategory(staff.Department, staff.Category, engine.Midnight(date))
	if err != nil {
		return nil, nil, err
	}

	// 公平性评估窗口从所在周的周日开始
	windowStart := weekStart
	windowEnd := windowStart.AddDate(0, 0, h.config.Scheduling.WindowDays-1)

	windowRosters, err := h.repository.GetRostersByDepartmentAndRange(staff.Department, windowStart, windowEnd)
	if err != nil {
		return nil, nil, err
	}

	// 节假日前后各多取一天，毗邻判断才完整
	holidays, err := h.repository.GetHolidaysByRange(windowStart.AddDate(0, 0, -1), windowEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, err
	}

	requirements, err := h.repository.GetRequirementsByDepartment(staff.Department)
	if err != nil {
		return nil, nil, err
	}

	resolver := engine.NewRequirementResolver(requirements)
	calendar := engine.NewCalendar(holidays)
	calc := engine.NewFairnessCalculator(resolver, calendar)

	baselines := calc.CategoryBaselines(windowRosters, staff.Category, int(totalCategoryStaff))

	previousTotal := 0.0
	profile, err := h.repository.GetFairnessProfileByStaffID(staff.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
	} else {
		previousTotal = profile.Total
	}

	approvedDays, err := h.repository.CountApprovedLeaveDays(staff.ID, windowStart, windowEnd)
	if err != nil {
		return nil, nil, err
	}

	selectedInWindow := int32(0)
	for _, d := range selected {
		if engine.DateKey(d) == engine.DateKey(date) {
			continue
		}
		if !d.Before(windowStart) && !d.After(windowEnd) {
			selectedInWindow++
		}
	}

	weeklyMinimum := staff.WeeklyTarget
	if weeklyMinimum <= 0 {
		weeklyMinimum = int32(h.config.Scheduling.DefaultWeeklyTarget)
	}

	input := &engine.EligibilityInput{
		Staff:            staff,
		Date:             engine.Midnight(date),
		Type:             leaveType,
		SelectedSameWeek: selected,

		WeekRosters:        weekRosters,
		ApprovedOffsInWeek: approvedOffs,
		WeeklyMinimum:      weeklyMinimum,

		Roster:                    roster,
		TotalCategoryStaff:        totalCategoryStaff,
		ApprovedLeaveCountForDate: approvedForDate,
		AllowUnknownRequirement:   allowUnknownRequirement,

		WindowLength:              int32(len(windowRosters)),
		AdjustedMinimumTotal:      engine.AdjustedMinimum(baselines[engine.DimensionTotal], previousTotal),
		ApprovedLeaveDaysInWindow: approvedDays,
		SelectedInWindow:          selectedInWindow,
	}

	return input, engine.NewSimulator(engine.NewSlotService(resolver), calendar), nil
}

func (h *Handler) SubmitLeaveApplication(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)

	var req struct {
		Dates  []string `json:"dates" validate:"required,min=1"`
		Type   string   `json:"type" validate:"required,oneof=ANNUAL OFF"`
		Reason string   `json:"reason"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	dates := make([]time.Time, 0, len(req.Dates))
	for _, value := range req.Dates {
		date, err := parseDate(value)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		dates = append(dates, date)
	}

	leaveType := domain.LeaveType(req.Type)

	// 每个日期都要通过三项检查，任何一天被拒则整个提交失败
	for _, date := range dates {
		input, simulator, err := h.buildEligibilityInput(myInfo, date, leaveType, dates, false)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		verdict := simulator.Evaluate(input)
		if !verdict.Allowed {
			h.writeJSON(w, r, http.StatusOK, Response{
				Success: false,
				Message: verdict.Reason,
				Data: map[string]any{
					"date":    engine.DateKey(date),
					"verdict": verdict,
				},
			})
			return
		}
	}

	leaves := make([]*domain.LeaveApplication, 0, len(dates))
	for _, date := range dates {
		leave := &domain.LeaveApplication{
			StaffID: myInfo.ID,
			Date:    engine.Midnight(date),
			Type:    leaveType,
			Status:  domain.LeaveStatusPending,
			Reason:  req.Reason,
		}
		if err := h.repository.CreateLeaveApplication(leave); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		leaves = append(leaves, leave)
	}

	h.successResponse(w, r, "请假申请提交成功，等待审批", leaves)
}

// CheckLeaveEligibility 只做模拟不落库，职工可以在提交前反复试探
func (h *Handler) CheckLeaveEligibility(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Staff)

	var req struct {
		Date          string   `json:"date" validate:"required"`
		Type          string   `json:"type" validate:"required,oneof=ANNUAL OFF"`
		SelectedDates []string `json:"selectedDates"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	selected := make([]time.Time, 0, len(req.SelectedDates))
	for _, value := range req.SelectedDates {
		d, err := parseDate(value)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		selected = append(selected, d)
	}

	input, simulator, err := h.buildEligibilityInput(myInfo, date, domain.LeaveType(req.Type), selected, false)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	verdict := simulator.Evaluate(input)

	h.successResponse(w, r, "请假资格模拟完成", verdict)
}

func (h *Handler) GetPendingLeaveApplications(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department == "" {
		h.errorResponse(w, r, "缺少科室参数")
		return
	}

	leaves, err := h.repository.GetPendingLeaveApplications(department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取待审批请假成功", leaves)
}

func (h *Handler) BulkReviewLeaveApplications(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decisions []struct {
			ID     int64  `json:"id" validate:"required"`
			Status string `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
			Reason string `json:"reason"`
		} `json:"decisions" validate:"required,min=1,dive"`
		AllowUnknownRequirement bool `json:"allowUnknownRequirement"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	reviewed := make([]*domain.LeaveApplication, 0, len(req.Decisions))

	for _, decision := range req.Decisions {
		leave, err := h.repository.GetLeaveApplicationByID(decision.ID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "请假申请不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		if leave.Status == domain.LeaveStatusConfirmed || leave.Status == domain.LeaveStatusRejected {
			h.errorResponse(w, r, "请假申请已审批，不能重复审批")
			return
		}

		staff, err := h.repository.GetStaffByID(leave.StaffID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		status := domain.LeaveStatus(decision.Status)

		// 批准前按提交时的全部检查重新评估（提交到审批之间分组余量和
		// 公平性额度都可能已被其他审批消耗），不过关的申请降级为挂起而不是直接放行
		if status == domain.LeaveStatusConfirmed {
			input, simulator, err := h.buildEligibilityInput(staff, leave.Date, leave.Type, nil, req.AllowUnknownRequirement)
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}

			if verdict := simulator.Evaluate(input); !verdict.Allowed {
				status = domain.LeaveStatusOnHold
			}
		}

		leave.Status = status
		if decision.Reason != "" {
			leave.Reason = decision.Reason
		}

		if err := h.repository.UpdateLeaveApplication(leave); err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "审批冲突，请刷新后重试")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 审批结果通知职工；通知失败不回滚审批
		if err := h.enqueueMail(domain.MailMessage{
			Type: "leave_decision",
			To:   staff.Email,
			Data: domain.LeaveDecisionMailData{
				FullName: staff.FullName,
				Date:     engine.DateKey(leave.Date),
				Type:     string(leave.Type),
				Status:   string(leave.Status),
				Reason:   leave.Reason,
			},
		}); err != nil {
			slog.Error("请假审批通知入队失败", "leaveID", leave.ID, "error", err)
		}

		reviewed = append(reviewed, leave)
	}

	h.successResponse(w, r, "批量审批完成", reviewed)
}
