package domain

import "time"

type LeaveType string

const (
	LeaveTypeAnnual LeaveType = "ANNUAL" // 年假，计入每周工作天数上限
	LeaveTypeOff    LeaveType = "OFF"    // 普通休息
)

type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "PENDING"
	LeaveStatusConfirmed LeaveStatus = "CONFIRMED"
	LeaveStatusOnHold    LeaveStatus = "ON_HOLD"
	LeaveStatusRejected  LeaveStatus = "REJECTED"
)

type LeaveApplication struct {
	ID        int64       `json:"id"`
	StaffID   int64       `json:"staffID"`
	Date      time.Time   `json:"date"`
	Type      LeaveType   `json:"type"`
	Status    LeaveStatus `json:"status"`
	Reason    string      `json:"reason"`
	CreatedAt time.Time   `json:"createdAt"`
	Version   int32       `json:"-"`
}
