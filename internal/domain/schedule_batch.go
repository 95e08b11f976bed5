package domain

import "time"

type BatchStatus string

const (
	BatchStatusDraft     BatchStatus = "DRAFT"
	BatchStatusAssigning BatchStatus = "ASSIGNING" // 作为运行锁使用，同一批次同时只允许一个排班任务
	BatchStatusConfirmed BatchStatus = "CONFIRMED"
	BatchStatusDeployed  BatchStatus = "DEPLOYED"
)

// ScheduleBatch 某科室某个周期（按周运行，按月归档）的排班批次容器
type ScheduleBatch struct {
	ID         int64       `json:"id"`
	Department string      `json:"department"`
	Period     string      `json:"period"` // 归档月份，格式 2006-01
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Status     BatchStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	Version    int32       `json:"-"`
}
