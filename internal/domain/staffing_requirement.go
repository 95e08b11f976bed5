package domain

import "time"

// CategoryRequirement 某个分组在一天中的人数要求
type CategoryRequirement struct {
	Count   int32 `json:"count"`   // 需要排班的人数
	Minimum int32 `json:"minimum"` // 当天必须在岗的最低人数（请假审批时的底线）
}

// StaffingRequirement 以（排序去重后的医生编码组合，是否有夜诊）为键的人力配置，
// 对排班引擎只读
type StaffingRequirement struct {
	ID            int64                          `json:"id"`
	Department    string                         `json:"department"`
	DoctorKey     string                         `json:"doctorKey"` // 医生编码排序去重后用 "+" 连接
	HasNightShift bool                           `json:"hasNightShift"`
	TotalRequired int32                          `json:"totalRequired"`
	Categories    map[string]CategoryRequirement `json:"categories"`
	CreatedAt     time.Time                      `json:"createdAt"`
	Version       int32                          `json:"-"`
}
