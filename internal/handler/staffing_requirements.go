package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/engine"
)

func (h *Handler) CreateStaffingRequirement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Department    string   `json:"department" validate:"required"`
		DoctorCodes   []string `json:"doctorCodes" validate:"required,min=1"`
		HasNightShift bool     `json:"hasNightShift"`
		Categories    map[string]struct {
			Count   int32 `json:"count" validate:"min=0"`
			Minimum int32 `json:"minimum" validate:"min=0"`
		} `json:"categories" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	requirement := &domain.StaffingRequirement{
		Department:    req.Department,
		DoctorKey:     engine.NormalizeDoctorKey(req.DoctorCodes),
		HasNightShift: req.HasNightShift,
		Categories:    make(map[string]domain.CategoryRequirement, len(req.Categories)),
	}

	for name, cr := range req.Categories {
		requirement.Categories[name] = domain.CategoryRequirement{
			Count:   cr.Count,
			Minimum: cr.Minimum,
		}
		requirement.TotalRequired += cr.Count
	}

	if err := h.repository.CreateStaffingRequirement(requirement); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "staffing_requirements_department_doctor_key_has_night_shift_key":
				h.badRequest(w, r, errors.New("该医生组合的人力配置已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建人力配置成功", requirement)
}

func (h *Handler) GetStaffingRequirements(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	if department == "" {
		h.errorResponse(w, r, "缺少科室参数")
		return
	}

	requirements, err := h.repository.GetRequirementsByDepartment(department)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取人力配置成功", requirements)
}

func (h *Handler) DeleteStaffingRequirement(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "配置ID无效")
		return
	}

	if err := h.repository.DeleteStaffingRequirement(id); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除人力配置成功", nil)
}
