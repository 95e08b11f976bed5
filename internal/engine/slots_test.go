package engine

import (
	"testing"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func slotFixture() (*SlotService, *domain.DoctorRoster) {
	resolver := NewRequirementResolver([]*domain.StaffingRequirement{
		{
			Department:    "内科",
			DoctorKey:     "D1+D2",
			TotalRequired: 10,
			Categories: map[string]domain.CategoryRequirement{
				"组长": {Count: 3, Minimum: 2},
				"组员": {Count: 7, Minimum: 5},
			},
		},
	})

	roster := &domain.DoctorRoster{
		Department:  "内科",
		Date:        date(2026, time.August, 3),
		DoctorCodes: []string{"D1", "D2"},
	}

	return NewSlotService(resolver), roster
}

func TestSlotService_CategoryMinimumBreach(t *testing.T) {
	slots, roster := slotFixture()

	// 4 名组长、最低在岗 2 人、已有 2 人请假 → 第 3 个请假必须挂起
	availability := slots.Check(roster, "组长", 4, 2, false)
	assert.True(t, availability.ShouldHold)
	assert.Equal(t, int32(0), availability.Available)
	assert.Contains(t, availability.Reason, "最低在岗")
}

func TestSlotService_HasHeadroom(t *testing.T) {
	slots, roster := slotFixture()

	availability := slots.Check(roster, "组长", 4, 1, false)
	assert.False(t, availability.ShouldHold)
	assert.Equal(t, int32(1), availability.Available)
}

func TestSlotService_UnknownRequirementHoldsConservatively(t *testing.T) {
	slots, _ := slotFixture()

	unknown := &domain.DoctorRoster{
		Department:  "内科",
		Date:        date(2026, time.August, 3),
		DoctorCodes: []string{"D9"},
	}

	availability := slots.Check(unknown, "组长", 4, 0, false)
	assert.True(t, availability.ShouldHold)

	// 调用方显式放行时不再保守挂起
	overridden := slots.Check(unknown, "组长", 4, 0, true)
	assert.False(t, overridden.ShouldHold)
}

func TestSlotService_UnconfiguredCategoryHolds(t *testing.T) {
	slots, roster := slotFixture()

	// 分组未配置不能当成最低人数为零
	availability := slots.Check(roster, "药剂", 3, 0, false)
	assert.True(t, availability.ShouldHold)
}

func TestSlotService_NilRosterHolds(t *testing.T) {
	slots, _ := slotFixture()

	availability := slots.Check(nil, "组长", 4, 0, false)
	assert.True(t, availability.ShouldHold)
}
