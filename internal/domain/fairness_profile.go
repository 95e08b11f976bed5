package domain

import "time"

// FairnessProfile 每个职工在五个公平性维度上的累计偏差，
// 正数表示相对公平份额欠班（应该多排），负数表示超班。
// 只在批次发布（deploy）时由公平性计算器整体覆盖写入，
// 是排班核心唯一的跨周期状态。
type FairnessProfile struct {
	ID                int64     `json:"id"`
	StaffID           int64     `json:"staffID"`
	Period            string    `json:"period"` // 产生该偏差的周期，格式 2006-01
	Total             float64   `json:"total"`
	Night             float64   `json:"night"`
	Weekend           float64   `json:"weekend"`
	Holiday           float64   `json:"holiday"`
	HolidayAdjacent   float64   `json:"holidayAdjacent"`
	AnnualLeaveUsed   int32     `json:"annualLeaveUsed"` // 发布时累加的年假使用天数
	UpdatedAt         time.Time `json:"updatedAt"`
	Version           int32     `json:"-"`
}
