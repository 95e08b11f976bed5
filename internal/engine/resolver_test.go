package engine

import (
	"testing"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDoctorKey(t *testing.T) {
	assert.Equal(t, "D1+D2+D3", NormalizeDoctorKey([]string{"D3", "D1", "D2"}))
	assert.Equal(t, "D1+D2", NormalizeDoctorKey([]string{"D2", "D1", "D2", " D1 "}))
	assert.Equal(t, "D1", NormalizeDoctorKey([]string{"", "  ", "D1"}))
	assert.Equal(t, "", NormalizeDoctorKey(nil))
}

func testRequirement(department, doctorKey string, night bool) *domain.StaffingRequirement {
	return &domain.StaffingRequirement{
		Department:    department,
		DoctorKey:     doctorKey,
		HasNightShift: night,
		TotalRequired: 5,
		Categories: map[string]domain.CategoryRequirement{
			"组长": {Count: 2, Minimum: 1},
			"组员": {Count: 3, Minimum: 2},
		},
	}
}

func TestResolver_Resolve(t *testing.T) {
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{
		testRequirement("内科", "D1+D2", false),
		testRequirement("内科", "D1+D2", true),
	})

	roster := &domain.DoctorRoster{
		Department:  "内科",
		Date:        date(2026, time.August, 3),
		DoctorCodes: []string{"D2", "D1"},
	}

	resolved := resolver.Resolve(roster)
	require.True(t, resolved.Known)
	assert.Equal(t, int32(5), resolved.TotalRequired)

	cr, configured := resolved.Category("组长")
	require.True(t, configured)
	assert.Equal(t, int32(2), cr.Count)
	assert.Equal(t, int32(1), cr.Minimum)
}

func TestResolver_NightFlagDistinguishesRequirements(t *testing.T) {
	dayReq := testRequirement("内科", "D1", false)
	nightReq := testRequirement("内科", "D1", true)
	nightReq.TotalRequired = 3
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{dayReq, nightReq})

	night := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D1"}, HasNightShift: true})
	require.True(t, night.Known)
	assert.Equal(t, int32(3), night.TotalRequired)

	day := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D1"}})
	require.True(t, day.Known)
	assert.Equal(t, int32(5), day.TotalRequired)
}

func TestResolver_UnknownCombinationIsResultNotError(t *testing.T) {
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{
		testRequirement("内科", "D1+D2", false),
	})

	resolved := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D9"}})
	assert.False(t, resolved.Known)

	// nil 出诊表同样是未知而不是崩溃
	assert.False(t, resolver.Resolve(nil).Known)
}

func TestResolvedRequirement_UnconfiguredCategoryIsDistinct(t *testing.T) {
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{
		testRequirement("内科", "D1", false),
	})

	resolved := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D1"}})
	require.True(t, resolved.Known)

	// 未配置的分组必须是明确的否定结果，而不是隐式的零值
	_, configured := resolved.Category("药剂")
	assert.False(t, configured)
}

func TestResolver_ResolveCopiesCategories(t *testing.T) {
	req := testRequirement("内科", "D1", false)
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{req})

	resolved := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D1"}})
	resolved.Categories["组长"] = domain.CategoryRequirement{Count: 99, Minimum: 99}

	again := resolver.Resolve(&domain.DoctorRoster{DoctorCodes: []string{"D1"}})
	cr, _ := again.Category("组长")
	assert.Equal(t, int32(2), cr.Count)
}
