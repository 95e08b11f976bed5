package domain

import (
	"time"
)

type Role string

const (
	RoleStaff     Role = "普通职工"
	RoleScheduler Role = "排班管理员"
	RoleAdmin     Role = "系统管理员"
)

type Staff struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Department   string    `json:"department"`
	Category     string    `json:"category"`     // 科室内的分组（例如组长、组员），排班最低人数和公平性基线都按分组计算
	WeeklyTarget int32     `json:"weeklyTarget"` // 每周目标工作天数（4 或 5）
	IsFlexible   bool      `json:"isFlexible"`   // 是否可以支援其它分组的槽位
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
