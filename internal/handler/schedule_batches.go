package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/engine"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/repository"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (h *Handler) CreateScheduleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Department string `json:"department" validate:"required"`
		Period     string `json:"period" validate:"required"`
		StartDate  string `json:"startDate" validate:"required"`
		EndDate    string `json:"endDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !periodPattern.MatchString(req.Period) {
		h.badRequest(w, r, errors.New("归档周期格式应为 2006-01"))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if endDate.Before(startDate) {
		h.badRequest(w, r, errors.New("结束日期不能早于起始日期"))
		return
	}

	batch := &domain.ScheduleBatch{
		Department: req.Department,
		Period:     req.Period,
		StartDate:  startDate,
		EndDate:    endDate,
	}

	if err := h.repository.CreateScheduleBatch(batch); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建排班批次成功", batch)
}

func (h *Handler) GetAllScheduleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.repository.GetAllScheduleBatches()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班批次列表成功", batches)
}

func (h *Handler) GetScheduleBatch(w http.ResponseWriter, r *http.Request) {
	batch := r.Context().Value(ScheduleBatchCtx).(*domain.ScheduleBatch)
	h.successResponse(w, r, "获取排班批次成功", batch)
}

func (h *Handler) GetBatchAssignments(w http.ResponseWriter, r *http.Request) {
	batch := r.Context().Value(ScheduleBatchCtx).(*domain.ScheduleBatch)

	assignments, err := h.repository.GetAssignmentsByBatchID(batch.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取批次排班成功", assignments)
}

// loadRunInput 加锁之后一次性读出排班运行所需的全部快照，
// 运行期间引擎不再访问数据库
func (h *Handler) loadRunInput(batch *domain.ScheduleBatch) (*engine.RunInput, error) {
	staffs, err := h.repository.GetActiveStaffsByDepartment(batch.Department)
	if err != nil {
		return nil, err
	}

	rosters, err := h.repository.GetRostersByDepartmentAndRange(batch.Department, batch.StartDate, batch.EndDate)
	if err != nil {
		return nil, err
	}

	requirements, err := h.repository.GetRequirementsByDepartment(batch.Department)
	if err != nil {
		return nil, err
	}

	leaves, err := h.repository.GetConfirmedLeavesByDepartmentAndRange(batch.Department, batch.StartDate, batch.EndDate)
	if err != nil {
		return nil, err
	}

	existing, err := h.repository.GetAssignmentsByBatchID(batch.ID)
	if err != nil {
		return nil, err
	}

	// 节假日前后各多取一天，毗邻判断才完整
	holidays, err := h.repository.GetHolidaysByRange(batch.StartDate.AddDate(0, 0, -1), batch.EndDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	profiles, err := h.repository.GetFairnessProfilesByDepartment(batch.Department)
	if err != nil {
		return nil, err
	}

	return &engine.RunInput{
		Batch:           batch,
		Staffs:          staffs,
		Rosters:         rosters,
		Requirements:    requirements,
		ConfirmedLeaves: leaves,
		Existing:        existing,
		Holidays:        holidays,
		Profiles:        profiles,
	}, nil
}

func (h *Handler) RunScheduleBatch(w http.ResponseWriter, r *http.Request) {
	batch := r.Context().Value(ScheduleBatchCtx).(*domain.ScheduleBatch)

	switch batch.Status {
	case domain.BatchStatusConfirmed:
		h.errorResponse(w, r, "批次已确认归档，不能再运行排班")
		return
	case domain.BatchStatusDeployed:
		h.errorResponse(w, r, "批次已发布，不能再运行排班")
		return
	}

	// 抢运行锁，抢不到直接告知稍后重试，不做自动重试
	if err := h.repository.BeginAssigning(batch); err != nil {
		switch {
		case errors.Is(err, repository.ErrBatchLocked):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 无论成功失败都要把锁退回 DRAFT
	defer func() {
		if err := h.repository.ReleaseAssigning(batch.ID); err != nil {
			slog.Error("释放排班批次锁失败", "batchID", batch.ID, "error", err)
		}
	}()

	start := time.Now()

	input, err := h.loadRunInput(batch)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	result := engine.NewRun(input).Execute()

	if err := h.repository.ApplyAssignmentMutations(batch.ID, result.Mutations); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	slog.Info("排班运行完成",
		"batchID", batch.ID,
		"assigned", result.AssignedCount,
		"mutations", len(result.Mutations),
		"issues", len(result.Issues),
		"duration", time.Since(start),
	)

	h.successResponse(w, r, "排班运行完成", result)
}

func (h *Handler) DeployScheduleBatch(w http.ResponseWriter, r *http.Request) {
	batch := r.Context().Value(ScheduleBatchCtx).(*domain.ScheduleBatch)

	switch batch.Status {
	case domain.BatchStatusAssigning:
		h.errorResponse(w, r, "排班批次正在运行中，请稍后重试")
		return
	case domain.BatchStatusDeployed:
		h.errorResponse(w, r, "批次已发布")
		return
	}

	staffs, err := h.repository.GetActiveStaffsByDepartment(batch.Department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	rosters, err := h.repository.GetRostersByDepartmentAndRange(batch.Department, batch.StartDate, batch.EndDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	requirements, err := h.repository.GetRequirementsByDepartment(batch.Department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	assignments, err := h.repository.GetAssignmentsByBatchID(batch.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	holidays, err := h.repository.GetHolidaysByRange(batch.StartDate.AddDate(0, 0, -1), batch.EndDate.AddDate(0, 0, 1))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	profiles, err := h.repository.GetFairnessProfilesByDepartment(batch.Department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	leaves, err := h.repository.GetConfirmedLeavesByDepartmentAndRange(batch.Department, batch.StartDate, batch.EndDate)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 结算本周期的公平性偏差
	previous := make(map[int64]engine.Deviations, len(profiles))
	for _, p := range profiles {
		previous[p.StaffID] = engine.DeviationsFromProfile(p)
	}

	calc := engine.NewFairnessCalculator(engine.NewRequirementResolver(requirements), engine.NewCalendar(holidays))
	deviations := calc.ClosePeriod(rosters, staffs, previous, assignments)

	// 发布时累加年假使用天数
	annualUsed := make(map[int64]int32)
	for _, lv := range leaves {
		if lv.Type == domain.LeaveTypeAnnual {
			annualUsed[lv.StaffID]++
		}
	}

	newProfiles := make([]*domain.FairnessProfile, 0, len(deviations))
	for _, st := range staffs {
		d, exists := deviations[st.ID]
		if !exists {
			continue
		}
		newProfiles = append(newProfiles, &domain.FairnessProfile{
			StaffID:         st.ID,
			Period:          batch.Period,
			Total:           d[engine.DimensionTotal],
			Night:           d[engine.DimensionNight],
			Weekend:         d[engine.DimensionWeekend],
			Holiday:         d[engine.DimensionHoliday],
			HolidayAdjacent: d[engine.DimensionHolidayAdjacent],
			AnnualLeaveUsed: annualUsed[st.ID],
		})
	}

	if err := h.repository.DeployBatch(batch, newProfiles); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 发布通知；通知失败不回滚发布
	for _, st := range staffs {
		if err := h.enqueueMail(domain.MailMessage{
			Type: "schedule_deployed",
			To:   st.Email,
			Data: domain.ScheduleDeployedMailData{
				FullName:   st.FullName,
				Department: batch.Department,
				Period:     batch.Period,
			},
		}); err != nil {
			slog.Error("排班发布通知入队失败", "staffID", st.ID, "error", err)
		}
	}

	h.successResponse(w, r, "排班批次发布成功", batch)
}
