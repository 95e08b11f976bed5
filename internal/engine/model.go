package engine

import "github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

type IssueCode string

const (
	// IssueConfigurationGap 医生出诊组合没有匹配的人力配置，该日期被跳过
	IssueConfigurationGap IssueCode = "CONFIGURATION_GAP"
	// IssueConstraintUnsatisfiable 某天的槽位填不满，或某职工达不到每周保底天数
	IssueConstraintUnsatisfiable IssueCode = "CONSTRAINT_UNSATISFIABLE"
	// IssueLeaveConflict 已批准的请假与既有排班冲突
	IssueLeaveConflict IssueCode = "LEAVE_CONFLICT"
)

// Issue 业务性缺口统一用结构化结果返回，不作为错误抛出
type Issue struct {
	Code       IssueCode `json:"code"`
	Severity   Severity  `json:"severity"`
	StaffID    *int64    `json:"staffID,omitempty"`
	Date       string    `json:"date,omitempty"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion"`
}

// RunResult 一次排班运行的结果。
// Mutations 是需要写回数据库的排班行；在已一致的批次上重跑时必须为空。
type RunResult struct {
	Success       bool                      `json:"success"`
	AssignedCount int                       `json:"assignedCount"`
	Issues        []Issue                   `json:"issues"`
	Mutations     []*domain.ShiftAssignment `json:"-"`
}
