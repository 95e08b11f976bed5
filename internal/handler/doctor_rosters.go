package handler

import (
	"net/http"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/engine"
)

// UpsertDoctorRosters 批量导入医生出诊表，同一 (科室, 日期) 重复导入视为覆盖
func (h *Handler) UpsertDoctorRosters(w http.ResponseWriter, r *http.Request) {
	var req []struct {
		Department    string   `json:"department" validate:"required"`
		Date          string   `json:"date" validate:"required"`
		DoctorCodes   []string `json:"doctorCodes" validate:"required"`
		HasNightShift bool     `json:"hasNightShift"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Var(req, "required,dive"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rosters := make([]*domain.DoctorRoster, 0, len(req))
	for _, item := range req {
		date, err := parseDate(item.Date)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}

		roster := &domain.DoctorRoster{
			Department:    item.Department,
			Date:          date,
			DoctorCodes:   engine.NormalizeDoctorCodes(item.DoctorCodes),
			HasNightShift: item.HasNightShift,
		}

		if err := h.repository.UpsertDoctorRoster(roster); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		rosters = append(rosters, roster)
	}

	h.successResponse(w, r, "导入出诊表成功", rosters)
}

func (h *Handler) GetDoctorRosters(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department == "" {
		h.errorResponse(w, r, "缺少科室参数")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	rosters, err := h.repository.GetRostersByDepartmentAndRange(department, start, end)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取出诊表成功", rosters)
}
