package domain

import "time"

// Holiday 法定节假日，影响每周可工作天数和公平性的节假日维度
type Holiday struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}
