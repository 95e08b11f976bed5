package repository

import (
	"context"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) GetAssignmentsByBatchID(batchID int64) ([]*domain.ShiftAssignment, error) {
	query := `
		SELECT id, batch_id, staff_id, date, kind, leave_id, created_at, version
		FROM shift_assignments
		WHERE batch_id = $1
		ORDER BY staff_id, date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.ShiftAssignment, 0)
	for rows.Next() {
		assignment := &domain.ShiftAssignment{}
		dst := []any{&assignment.ID, &assignment.BatchID, &assignment.StaffID, &assignment.Date, &assignment.Kind, &assignment.LeaveID, &assignment.CreatedAt, &assignment.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetAssignmentsByStaffAndRange(staffID int64, start time.Time, end time.Time) ([]*domain.ShiftAssignment, error) {
	query := `
		SELECT a.id, a.batch_id, a.staff_id, a.date, a.kind, a.leave_id, a.created_at, a.version
		FROM shift_assignments a
		JOIN schedule_batches b ON a.batch_id = b.id
		WHERE a.staff_id = $1 AND a.date >= $2 AND a.date <= $3 AND b.status = $4
		ORDER BY a.date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID, start, end, domain.BatchStatusDeployed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.ShiftAssignment, 0)
	for rows.Next() {
		assignment := &domain.ShiftAssignment{}
		dst := []any{&assignment.ID, &assignment.BatchID, &assignment.StaffID, &assignment.Date, &assignment.Kind, &assignment.LeaveID, &assignment.CreatedAt, &assignment.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// ApplyAssignmentMutations 把一次排班运行产出的变更整体落库：
// ID 为零的插入，其余带版本号更新，任何一条失败则全部回滚
func (r *Repository) ApplyAssignmentMutations(batchID int64, mutations []*domain.ShiftAssignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertQuery := `
		INSERT INTO shift_assignments (batch_id, staff_id, date, kind, leave_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`
	updateQuery := `
		UPDATE shift_assignments
		SET kind = $1, leave_id = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	for _, mutation := range mutations {
		if mutation.ID == 0 {
			mutation.BatchID = batchID
			params := []any{batchID, mutation.StaffID, mutation.Date, mutation.Kind, mutation.LeaveID}
			if err := tx.QueryRowContext(ctx, insertQuery, params...).Scan(&mutation.ID, &mutation.CreatedAt, &mutation.Version); err != nil {
				return err
			}
			continue
		}

		params := []any{mutation.Kind, mutation.LeaveID, mutation.ID, mutation.Version}
		if err := tx.QueryRowContext(ctx, updateQuery, params...).Scan(&mutation.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}
