package repository

import (
	"context"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) GetFairnessProfileByStaffID(staffID int64) (*domain.FairnessProfile, error) {
	query := `
		SELECT id, staff_id, period, total, night, weekend, holiday, holiday_adjacent, annual_leave_used, updated_at, version
		FROM fairness_profiles
		WHERE staff_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	profile := &domain.FairnessProfile{}
	dst := []any{&profile.ID, &profile.StaffID, &profile.Period, &profile.Total, &profile.Night, &profile.Weekend, &profile.Holiday, &profile.HolidayAdjacent, &profile.AnnualLeaveUsed, &profile.UpdatedAt, &profile.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, staffID).Scan(dst...); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetFairnessProfilesByDepartment 排班运行快照的一部分：没有档案的职工视为零偏差
func (r *Repository) GetFairnessProfilesByDepartment(department string) ([]*domain.FairnessProfile, error) {
	query := `
		SELECT p.id, p.staff_id, p.period, p.total, p.night, p.weekend, p.holiday, p.holiday_adjacent, p.annual_leave_used, p.updated_at, p.version
		FROM fairness_profiles p
		JOIN staffs s ON p.staff_id = s.id
		WHERE s.department = $1
		ORDER BY p.staff_id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*domain.FairnessProfile, 0)
	for rows.Next() {
		profile := &domain.FairnessProfile{}
		dst := []any{&profile.ID, &profile.StaffID, &profile.Period, &profile.Total, &profile.Night, &profile.Weekend, &profile.Holiday, &profile.HolidayAdjacent, &profile.AnnualLeaveUsed, &profile.UpdatedAt, &profile.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}
