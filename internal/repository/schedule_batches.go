package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) CreateScheduleBatch(batch *domain.ScheduleBatch) error {
	query := `
		INSERT INTO schedule_batches (department, period, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	batch.Status = domain.BatchStatusDraft
	params := []any{batch.Department, batch.Period, batch.StartDate, batch.EndDate, batch.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&batch.ID, &batch.CreatedAt, &batch.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetScheduleBatchByID(id int64) (*domain.ScheduleBatch, error) {
	query := `
		SELECT department, period, start_date, end_date, status, created_at, version
		FROM schedule_batches
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	batch := &domain.ScheduleBatch{
		ID: id,
	}

	dst := []any{&batch.Department, &batch.Period, &batch.StartDate, &batch.EndDate, &batch.Status, &batch.CreatedAt, &batch.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return batch, nil
}

func (r *Repository) GetAllScheduleBatches() ([]*domain.ScheduleBatch, error) {
	query := `
		SELECT id, department, period, start_date, end_date, status, created_at, version
		FROM schedule_batches
		ORDER BY start_date DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]*domain.ScheduleBatch, 0)
	for rows.Next() {
		batch := &domain.ScheduleBatch{}
		dst := []any{&batch.ID, &batch.Department, &batch.Period, &batch.StartDate, &batch.EndDate, &batch.Status, &batch.CreatedAt, &batch.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return batches, nil
}

// BeginAssigning 原子地获取批次运行锁：状态检查和写入在同一条 UPDATE 中完成，
// 两个调用方不可能同时通过检查。抢锁失败返回 ErrBatchLocked。
func (r *Repository) BeginAssigning(batch *domain.ScheduleBatch) error {
	query := `
		UPDATE schedule_batches
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{domain.BatchStatusAssigning, batch.ID, domain.BatchStatusDraft}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&batch.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBatchLocked
		}
		return err
	}

	batch.Status = domain.BatchStatusAssigning
	return nil
}

// ReleaseAssigning 无条件把锁退回 DRAFT，成功和失败路径都必须调用，
// 保证卡死的批次随时可以重试
func (r *Repository) ReleaseAssigning(batchID int64) error {
	query := `
		UPDATE schedule_batches
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, domain.BatchStatusDraft, batchID, domain.BatchStatusAssigning); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateBatchStatus(batch *domain.ScheduleBatch, status domain.BatchStatus) error {
	query := `
		UPDATE schedule_batches
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, status, batch.ID, batch.Version).Scan(&batch.Version); err != nil {
		return err
	}

	batch.Status = status
	return nil
}

// DeployBatch 发布批次：写入新的公平性偏差、累计年假使用、
// 取代同周期其它已发布的批次，整体在一个事务中完成
func (r *Repository) DeployBatch(batch *domain.ScheduleBatch, profiles []*domain.FairnessProfile) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 同一科室同一周期只能有一个已发布批次，旧的退回 CONFIRMED
	query := `
		UPDATE schedule_batches
		SET status = $1, version = version + 1
		WHERE department = $2 AND period = $3 AND status = $4 AND id <> $5
	`
	if _, err := tx.ExecContext(ctx, query, domain.BatchStatusConfirmed, batch.Department, batch.Period, domain.BatchStatusDeployed, batch.ID); err != nil {
		return err
	}

	query = `
		UPDATE schedule_batches
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, domain.BatchStatusDeployed, batch.ID, batch.Version).Scan(&batch.Version); err != nil {
		return err
	}

	// 覆盖写入每个职工的累计偏差，这是排班核心唯一的跨周期状态
	for _, profile := range profiles {
		query := `
			INSERT INTO fairness_profiles (staff_id, period, total, night, weekend, holiday, holiday_adjacent, annual_leave_used, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (staff_id) DO UPDATE
			SET period = EXCLUDED.period,
				total = EXCLUDED.total,
				night = EXCLUDED.night,
				weekend = EXCLUDED.weekend,
				holiday = EXCLUDED.holiday,
				holiday_adjacent = EXCLUDED.holiday_adjacent,
				annual_leave_used = fairness_profiles.annual_leave_used + EXCLUDED.annual_leave_used,
				updated_at = NOW(),
				version = fairness_profiles.version + 1
		`

		params := []any{profile.StaffID, profile.Period, profile.Total, profile.Night, profile.Weekend, profile.Holiday, profile.HolidayAdjacent, profile.AnnualLeaveUsed}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	batch.Status = domain.BatchStatusDeployed
	return nil
}
