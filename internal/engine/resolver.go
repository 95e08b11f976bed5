package engine

import (
	"sort"
	"strings"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

// ResolvedRequirement 某一天医生出诊组合对应的人力要求。
// Known 为 false 表示没有匹配的人力配置，调用方必须把这一天当作不可排班处理，
// 而不能让整个批次失败。
type ResolvedRequirement struct {
	Known         bool
	TotalRequired int32
	Categories    map[string]domain.CategoryRequirement
}

// NormalizeDoctorCodes 规范化医生编码集合：去空白、去空串、去重、排序
func NormalizeDoctorCodes(codes []string) []string {
	seen := make(map[string]bool)
	normalized := make([]string, 0, len(codes))

	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		normalized = append(normalized, code)
	}

	sort.Strings(normalized)

	return normalized
}

// NormalizeDoctorKey 将医生编码集合规范化为查找键，用 "+" 连接
func NormalizeDoctorKey(codes []string) string {
	return strings.Join(NormalizeDoctorCodes(codes), "+")
}

type RequirementResolver struct {
	byKey map[string]*domain.StaffingRequirement
}

func NewRequirementResolver(requirements []*domain.StaffingRequirement) *RequirementResolver {
	r := &RequirementResolver{
		byKey: make(map[string]*domain.StaffingRequirement, len(requirements)),
	}

	for _, req := range requirements {
		r.byKey[lookupKey(req.DoctorKey, req.HasNightShift)] = req
	}

	return r
}

func lookupKey(doctorKey string, hasNightShift bool) string {
	if hasNightShift {
		return doctorKey + "#night"
	}
	return doctorKey + "#day"
}

// Resolve 根据某天的医生出诊表查找人力要求，查不到时返回 Known=false 而不是错误
func (r *RequirementResolver) Resolve(roster *domain.DoctorRoster) ResolvedRequirement {
	if roster == nil {
		return ResolvedRequirement{Known: false}
	}

	key := lookupKey(NormalizeDoctorKey(roster.DoctorCodes), roster.HasNightShift)
	req, exists := r.byKey[key]
	if !exists {
		return ResolvedRequirement{Known: false}
	}

	// 复制一份分组配置，避免调用方改动配置快照
	categories := make(map[string]domain.CategoryRequirement, len(req.Categories))
	for name, cr := range req.Categories {
		categories[name] = cr
	}

	return ResolvedRequirement{
		Known:         true,
		TotalRequired: req.TotalRequired,
		Categories:    categories,
	}
}

// Category 查询某个分组的人力要求，"分组未配置"是一种明确的结果而不是隐式的零值
func (rr ResolvedRequirement) Category(name string) (domain.CategoryRequirement, bool) {
	if !rr.Known {
		return domain.CategoryRequirement{}, false
	}
	cr, exists := rr.Categories[name]
	return cr, exists
}
