package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) CreateStaffingRequirement(requirement *domain.StaffingRequirement) error {
	categories, err := json.Marshal(requirement.Categories)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO staffing_requirements (department, doctor_key, has_night_shift, total_required, categories)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{requirement.Department, requirement.DoctorKey, requirement.HasNightShift, requirement.TotalRequired, categories}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&requirement.ID, &requirement.CreatedAt, &requirement.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRequirementsByDepartment(department string) ([]*domain.StaffingRequirement, error) {
	query := `
		SELECT id, department, doctor_key, has_night_shift, total_required, categories, created_at, version
		FROM staffing_requirements
		WHERE department = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requirements := make([]*domain.StaffingRequirement, 0)
	for rows.Next() {
		requirement := &domain.StaffingRequirement{}
		var categories []byte
		dst := []any{&requirement.ID, &requirement.Department, &requirement.DoctorKey, &requirement.HasNightShift, &requirement.TotalRequired, &categories, &requirement.CreatedAt, &requirement.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(categories, &requirement.Categories); err != nil {
			return nil, err
		}
		requirements = append(requirements, requirement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requirements, nil
}

func (r *Repository) DeleteStaffingRequirement(id int64) error {
	query := `
		DELETE FROM staffing_requirements WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
