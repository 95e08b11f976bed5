package handler

import (
	"errors"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// parseDateRange 从查询参数中解析 start 和 end，两者都必填
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("起始日期无效，格式应为 2006-01-02")
	}

	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("结束日期无效，格式应为 2006-01-02")
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("结束日期不能早于起始日期")
	}

	return start, end, nil
}
