package seed

import (
	"log/slog"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/engine"
	"github.com/minkang-clinic-dev/duty-roster/backend/internal/repository"
)

// RequirementPresetMap 常见医生出诊组合对应的人力配置，
// 按门诊量从小到大排列
var RequirementPresetMap = map[string]struct {
	DoctorCodes   []string
	HasNightShift bool
	Categories    map[string]domain.CategoryRequirement
}{
	"单医生日诊": {
		DoctorCodes: []string{"D1"},
		Categories: map[string]domain.CategoryRequirement{
			"组长": {Count: 1, Minimum: 1},
			"组员": {Count: 2, Minimum: 1},
		},
	},
	"双医生日诊": {
		DoctorCodes: []string{"D1", "D2"},
		Categories: map[string]domain.CategoryRequirement{
			"组长": {Count: 1, Minimum: 1},
			"组员": {Count: 3, Minimum: 2},
		},
	},
	"双医生夜诊": {
		DoctorCodes:   []string{"D1", "D2"},
		HasNightShift: true,
		Categories: map[string]domain.CategoryRequirement{
			"组长": {Count: 1, Minimum: 1},
			"组员": {Count: 4, Minimum: 2},
		},
	},
	"三医生日诊": {
		DoctorCodes: []string{"D1", "D2", "D3"},
		Categories: map[string]domain.CategoryRequirement{
			"组长": {Count: 2, Minimum: 1},
			"组员": {Count: 4, Minimum: 2},
		},
	},
}

// HolidayPresets 2026 年法定节假日
var HolidayPresets = map[string]string{
	"2026-01-01": "元旦",
	"2026-02-16": "除夕",
	"2026-02-17": "春节",
	"2026-02-18": "春节",
	"2026-02-19": "春节",
	"2026-04-05": "清明节",
	"2026-05-01": "劳动节",
	"2026-06-19": "端午节",
	"2026-09-25": "中秋节",
	"2026-10-01": "国庆节",
	"2026-10-02": "国庆节",
	"2026-10-03": "国庆节",
}

// SeedPresetData 插入预置的人力配置和节假日
func SeedPresetData(r *repository.Repository, department string) {
	cnt := 0
	for name, preset := range RequirementPresetMap {
		requirement := &domain.StaffingRequirement{
			Department:    department,
			DoctorKey:     engine.NormalizeDoctorKey(preset.DoctorCodes),
			HasNightShift: preset.HasNightShift,
			Categories:    preset.Categories,
		}
		for _, cr := range preset.Categories {
			requirement.TotalRequired += cr.Count
		}

		if err := r.CreateStaffingRequirement(requirement); err != nil {
			slog.Error("无法插入人力配置", "preset", name, "error", err)
			continue
		}
		cnt++
	}
	slog.Info("插入人力配置成功", "count", cnt)

	cnt = 0
	for dateValue, name := range HolidayPresets {
		date, err := time.Parse("2006-01-02", dateValue)
		if err != nil {
			slog.Error("节假日日期无效", "date", dateValue, "error", err)
			continue
		}

		if err := r.CreateHoliday(&domain.Holiday{Date: date, Name: name}); err != nil {
			slog.Error("无法插入节假日", "date", dateValue, "error", err)
			continue
		}
		cnt++
	}
	slog.Info("插入节假日成功", "count", cnt)
}
