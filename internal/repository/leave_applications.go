package repository

import (
	"context"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) CreateLeaveApplication(leave *domain.LeaveApplication) error {
	query := `
		INSERT INTO leave_applications (staff_id, date, type, status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{leave.StaffID, leave.Date, leave.Type, leave.Status, leave.Reason}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&leave.ID, &leave.CreatedAt, &leave.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetLeaveApplicationByID(id int64) (*domain.LeaveApplication, error) {
	query := `
		SELECT staff_id, date, type, status, reason, created_at, version
		FROM leave_applications
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	leave := &domain.LeaveApplication{
		ID: id,
	}

	dst := []any{&leave.StaffID, &leave.Date, &leave.Type, &leave.Status, &leave.Reason, &leave.CreatedAt, &leave.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return leave, nil
}

func (r *Repository) GetLeaveApplicationsByStaffID(staffID int64) ([]*domain.LeaveApplication, error) {
	query := `
		SELECT id, staff_id, date, type, status, reason, created_at, version
		FROM leave_applications
		WHERE staff_id = $1
		ORDER BY date DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaves := make([]*domain.LeaveApplication, 0)
	for rows.Next() {
		leave := &domain.LeaveApplication{}
		dst := []any{&leave.ID, &leave.StaffID, &leave.Date, &leave.Type, &leave.Status, &leave.Reason, &leave.CreatedAt, &leave.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		leaves = append(leaves, leave)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leaves, nil
}

func (r *Repository) GetPendingLeaveApplications(department string) ([]*domain.LeaveApplication, error) {
	query := `
		SELECT l.id, l.staff_id, l.date, l.type, l.status, l.reason, l.created_at, l.version
		FROM leave_applications l
		JOIN staffs s ON l.staff_id = s.id
		WHERE s.department = $1 AND l.status IN ($2, $3)
		ORDER BY l.date, l.staff_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, department, domain.LeaveStatusPending, domain.LeaveStatusOnHold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaves := make([]*domain.LeaveApplication, 0)
	for rows.Next() {
		leave := &domain.LeaveApplication{}
		dst := []any{&leave.ID, &leave.StaffID, &leave.Date, &leave.Type, &leave.Status, &leave.Reason, &leave.CreatedAt, &leave.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		leaves = append(leaves, leave)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leaves, nil
}

func (r *Repository) UpdateLeaveApplication(leave *domain.LeaveApplication) error {
	query := `
		UPDATE leave_applications
		SET status = $1, reason = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{leave.Status, leave.Reason, leave.ID, leave.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&leave.Version); err != nil {
		return err
	}

	return nil
}

// GetConfirmedLeavesByDepartmentAndRange 排班运行第三阶段的输入：
// 批次区间内该科室所有已批准的请假
func (r *Repository) GetConfirmedLeavesByDepartmentAndRange(department string, start time.Time, end time.Time) ([]*domain.LeaveApplication, error) {
	query := `
		SELECT l.id, l.staff_id, l.date, l.type, l.status, l.reason, l.created_at, l.version
		FROM leave_applications l
		JOIN staffs s ON l.staff_id = s.id
		WHERE s.department = $1 AND l.status = $2 AND l.date >= $3 AND l.date <= $4
		ORDER BY l.date, l.staff_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, department, domain.LeaveStatusConfirmed, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaves := make([]*domain.LeaveApplication, 0)
	for rows.Next() {
		leave := &domain.LeaveApplication{}
		dst := []any{&leave.ID, &leave.StaffID, &leave.Date, &leave.Type, &leave.Status, &leave.Reason, &leave.CreatedAt, &leave.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		leaves = append(leaves, leave)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leaves, nil
}

// CountApprovedLeavesByDateAndCategory 分组余量检查：某天某分组已批准的请假人数
func (r *Repository) CountApprovedLeavesByDateAndCategory(department string, category string, date time.Time) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM leave_applications l
		JOIN staffs s ON l.staff_id = s.id
		WHERE s.department = $1 AND s.category = $2 AND l.date = $3 AND l.status = $4
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var count int32
	params := []any{department, category, date, domain.LeaveStatusConfirmed}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// CountApprovedLeaveDays 公平性余量检查：职工在窗口内已批准的请假天数
func (r *Repository) CountApprovedLeaveDays(staffID int64, start time.Time, end time.Time) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM leave_applications
		WHERE staff_id = $1 AND status = $2 AND date >= $3 AND date <= $4
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var count int32
	params := []any{staffID, domain.LeaveStatusConfirmed, start, end}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// CountApprovedOffsInWeek 每周上限检查：职工在一周内已批准的 OFF 类请假天数
func (r *Repository) CountApprovedOffsInWeek(staffID int64, weekStart time.Time, weekEnd time.Time) (int32, error) {
	query := `
		SELECT COUNT(*)
		FROM leave_applications
		WHERE staff_id = $1 AND status = $2 AND type = $3 AND date >= $4 AND date <= $5
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var count int32
	params := []any{staffID, domain.LeaveStatusConfirmed, domain.LeaveTypeOff, weekStart, weekEnd}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
