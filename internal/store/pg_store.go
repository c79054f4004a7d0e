package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ambulance-list/internal/config"
	"ambulance-list/internal/db"
	"ambulance-list/internal/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("transport not found")

type PostgresStore struct {
	q      *db.Queries
	logger *zap.Logger
}

func NewPostgresStore(conn *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{q: db.New(conn), logger: logger}
}

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdle)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// FetchTransports returns the transports leaving departmentID ordered by
// schedule.
func (s *PostgresStore) FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
	rows, err := s.q.ListTransportsByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list transports for %s: %w", departmentID, err)
	}

	transports := make([]models.TransportRecord, 0, len(rows))
	for _, r := range rows {
		transports = append(transports, models.TransportRecord{
			ID:                       r.ID,
			PatientID:                r.PatientID,
			PatientName:              r.PatientName,
			FromDepartmentID:         r.FromDepartmentID,
			ToDepartmentID:           r.ToDepartmentID,
			ScheduledDateTime:        r.ScheduledAt.UTC(),
			EstimatedDurationMinutes: int(r.EstimatedDurationMinutes),
			MobilityStatus: models.MobilityStatus{
				Code:        r.MobilityCode,
				Value:       r.MobilityValue,
				Description: r.MobilityDescription.String,
			},
		})
	}
	return transports, nil
}

// Save inserts or updates t. A record without an id gets a new uuid.
func (s *PostgresStore) Save(ctx context.Context, t *models.TransportRecord) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return err
	}

	err := s.q.UpsertTransport(ctx, db.Transport{
		ID:                       t.ID,
		PatientID:                t.PatientID,
		PatientName:              t.PatientName,
		FromDepartmentID:         t.FromDepartmentID,
		ToDepartmentID:           t.ToDepartmentID,
		ScheduledAt:              t.ScheduledDateTime,
		EstimatedDurationMinutes: int32(t.EstimatedDurationMinutes),
		MobilityCode:             t.MobilityStatus.Code,
		MobilityValue:            t.MobilityStatus.Value,
		MobilityDescription: sql.NullString{
			String: t.MobilityStatus.Description,
			Valid:  t.MobilityStatus.Description != "",
		},
	})
	if err != nil {
		return fmt.Errorf("save transport %s: %w", t.ID, err)
	}

	s.logger.Debug("Saved transport", zap.String("transport_id", t.ID))
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	n, err := s.q.DeleteTransport(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transport %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
