package db

import (
	"context"
	"database/sql"
	"time"
)

type Transport struct {
	ID                       string
	PatientID                string
	PatientName              string
	FromDepartmentID         string
	ToDepartmentID           string
	ScheduledAt              time.Time
	EstimatedDurationMinutes int32
	MobilityCode             string
	MobilityValue            string
	MobilityDescription      sql.NullString
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Queries interface mimicking sqlc generated code
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const listTransportsByDepartment = `SELECT id, patient_id, patient_name, from_department_id, to_department_id, scheduled_at, estimated_duration_minutes, mobility_code, mobility_value, mobility_description, created_at, updated_at
FROM transports
WHERE from_department_id = $1
ORDER BY scheduled_at ASC, id ASC`

func (q *Queries) ListTransportsByDepartment(ctx context.Context, departmentID string) ([]Transport, error) {
	rows, err := q.db.QueryContext(ctx, listTransportsByDepartment, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transport
	for rows.Next() {
		var i Transport
		if err := rows.Scan(
			&i.ID, &i.PatientID, &i.PatientName, &i.FromDepartmentID, &i.ToDepartmentID,
			&i.ScheduledAt, &i.EstimatedDurationMinutes,
			&i.MobilityCode, &i.MobilityValue, &i.MobilityDescription,
			&i.CreatedAt, &i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertTransport = `INSERT INTO transports (id, patient_id, patient_name, from_department_id, to_department_id, scheduled_at, estimated_duration_minutes, mobility_code, mobility_value, mobility_description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	patient_id = EXCLUDED.patient_id,
	patient_name = EXCLUDED.patient_name,
	from_department_id = EXCLUDED.from_department_id,
	to_department_id = EXCLUDED.to_department_id,
	scheduled_at = EXCLUDED.scheduled_at,
	estimated_duration_minutes = EXCLUDED.estimated_duration_minutes,
	mobility_code = EXCLUDED.mobility_code,
	mobility_value = EXCLUDED.mobility_value,
	mobility_description = EXCLUDED.mobility_description,
	updated_at = NOW()`

func (q *Queries) UpsertTransport(ctx context.Context, arg Transport) error {
	_, err := q.db.ExecContext(ctx, upsertTransport,
		arg.ID, arg.PatientID, arg.PatientName, arg.FromDepartmentID, arg.ToDepartmentID,
		arg.ScheduledAt, arg.EstimatedDurationMinutes,
		arg.MobilityCode, arg.MobilityValue, arg.MobilityDescription,
	)
	return err
}

func (q *Queries) DeleteTransport(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, "DELETE FROM transports WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
