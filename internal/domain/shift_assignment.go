package domain

import "time"

type ShiftKind string

const (
	ShiftWorkDay   ShiftKind = "WORK_DAY"
	ShiftWorkNight ShiftKind = "WORK_NIGHT"
	ShiftOff       ShiftKind = "OFF"
)

// ShiftAssignment 某个职工在某一天的排班结果，同一批次内 (staff, date) 唯一
type ShiftAssignment struct {
	ID        int64     `json:"id"`
	BatchID   int64     `json:"batchID"`
	StaffID   int64     `json:"staffID"`
	Date      time.Time `json:"date"`
	Kind      ShiftKind `json:"kind"`
	LeaveID   *int64    `json:"leaveID"` // 当 OFF 由请假产生时指向对应的请假申请
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
