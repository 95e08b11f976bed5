package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
)

// UpsertDoctorRoster 出诊表按 (科室, 日期) 唯一，重复发布视为覆盖
func (r *Repository) UpsertDoctorRoster(roster *domain.DoctorRoster) error {
	codes, err := json.Marshal(roster.DoctorCodes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO doctor_rosters (department, date, doctor_codes, has_night_shift)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (department, date) DO UPDATE
		SET doctor_codes = EXCLUDED.doctor_codes,
			has_night_shift = EXCLUDED.has_night_shift,
			version = doctor_rosters.version + 1
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{roster.Department, roster.Date, codes, roster.HasNightShift}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&roster.ID, &roster.CreatedAt, &roster.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRostersByDepartmentAndRange(department string, start time.Time, end time.Time) ([]*domain.DoctorRoster, error) {
	query := `
		SELECT id, department, date, doctor_codes, has_night_shift, created_at, version
		FROM doctor_rosters
		WHERE department = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, department, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := make([]*domain.DoctorRoster, 0)
	for rows.Next() {
		roster := &domain.DoctorRoster{}
		var codes []byte
		dst := []any{&roster.ID, &roster.Department, &roster.Date, &codes, &roster.HasNightShift, &roster.CreatedAt, &roster.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(codes, &roster.DoctorCodes); err != nil {
			return nil, err
		}
		rosters = append(rosters, roster)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rosters, nil
}

func (r *Repository) GetRosterByDepartmentAndDate(department string, date time.Time) (*domain.DoctorRoster, error) {
	query := `
		SELECT id, department, date, doctor_codes, has_night_shift, created_at, version
		FROM doctor_rosters
		WHERE department = $1 AND date = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	roster := &domain.DoctorRoster{}
	var codes []byte
	dst := []any{&roster.ID, &roster.Department, &roster.Date, &codes, &roster.HasNightShift, &roster.CreatedAt, &roster.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, department, date).Scan(dst...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(codes, &roster.DoctorCodes); err != nil {
		return nil, err
	}

	return roster, nil
}
