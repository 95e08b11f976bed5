package domain

import "time"

// DoctorRoster 表示某一天出诊的医生集合，一旦发布就是排班引擎的只读输入
type DoctorRoster struct {
	ID            int64     `json:"id"`
	Department    string    `json:"department"`
	Date          time.Time `json:"date"`
	DoctorCodes   []string  `json:"doctorCodes"`
	HasNightShift bool      `json:"hasNightShift"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}
