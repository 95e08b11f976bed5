package engine

import (
	"fmt"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

// SlotAvailability 某分组在某一天的请假余量
type SlotAvailability struct {
	Available  int32  `json:"available"`
	ShouldHold bool   `json:"shouldHold"`
	Reason     string `json:"reason"`
}

// SlotService 分组余量服务，批量审批请假和资格模拟都会用到
type SlotService struct {
	resolver *RequirementResolver
}

func NewSlotService(resolver *RequirementResolver) *SlotService {
	return &SlotService{resolver: resolver}
}

// Check 余量 = 分组在职人数 − 当天已批准请假人数 − 当天分组最低在岗人数。
// 余量 <= 0 时应当挂起请假。
// 没有匹配人力配置的日期保守处理为挂起，除非调用方显式放行。
func (s *SlotService) Check(
	roster *domain.DoctorRoster,
	category string,
	totalCategoryStaff int32,
	approvedLeaveCount int32,
	allowUnknownRequirement bool,
) SlotAvailability {
	resolved := s.resolver.Resolve(roster)

	if !resolved.Known {
		if allowUnknownRequirement {
			return SlotAvailability{
				Available:  totalCategoryStaff - approvedLeaveCount,
				ShouldHold: false,
				Reason:     "该日期没有匹配的人力配置，已按放行处理",
			}
		}
		return SlotAvailability{
			Available:  0,
			ShouldHold: true,
			Reason:     "该日期没有匹配的人力配置，保守挂起",
		}
	}

	cr, configured := resolved.Category(category)
	if !configured {
		// 分组未配置同样保守处理，不能当成最低人数为零
		if allowUnknownRequirement {
			return SlotAvailability{
				Available:  totalCategoryStaff - approvedLeaveCount,
				ShouldHold: false,
				Reason:     fmt.Sprintf("分组 %s 在该日期的人力配置中不存在，已按放行处理", category),
			}
		}
		return SlotAvailability{
			Available:  0,
			ShouldHold: true,
			Reason:     fmt.Sprintf("分组 %s 在该日期的人力配置中不存在，保守挂起", category),
		}
	}

	available := totalCategoryStaff - approvedLeaveCount - cr.Minimum
	if available <= 0 {
		return SlotAvailability{
			Available:  available,
			ShouldHold: true,
			Reason: fmt.Sprintf("分组 %s 当天最低在岗 %d 人，在职 %d 人中已有 %d 人请假，再批会低于底线",
				category, cr.Minimum, totalCategoryStaff, approvedLeaveCount),
		}
	}

	return SlotAvailability{
		Available:  available,
		ShouldHold: false,
		Reason:     fmt.Sprintf("分组 %s 当天还可请假 %d 人", category, available),
	}
}
