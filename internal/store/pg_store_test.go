package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"ambulance-list/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var transportColumns = []string{
	"id", "patient_id", "patient_name", "from_department_id", "to_department_id",
	"scheduled_at", "estimated_duration_minutes",
	"mobility_code", "mobility_value", "mobility_description",
	"created_at", "updated_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	return conn, mock, NewPostgresStore(conn, zap.NewNop())
}

func TestFetchTransports_Success(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(transportColumns).
		AddRow("1", "123", "John Doe", "dept1", "dept2", at, 30, "WALK", "Walking", nil, at, at).
		AddRow("2", "456", "Jane Roe", "dept1", "dept3", at.Add(time.Hour), 45, "BED", "Bedridden", "oxygen", at, at)

	mock.ExpectQuery(`SELECT id, patient_id, patient_name`).
		WithArgs("dept1").
		WillReturnRows(rows)

	got, err := s.FetchTransports(context.Background(), "dept1")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "John Doe", got[0].PatientName)
	assert.Equal(t, "", got[0].MobilityStatus.Description)
	assert.Equal(t, "Jane Roe", got[1].PatientName)
	assert.Equal(t, "oxygen", got[1].MobilityStatus.Description)
	assert.Equal(t, 45, got[1].EstimatedDurationMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTransports_Empty(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT id, patient_id, patient_name`).
		WithArgs("dept9").
		WillReturnRows(sqlmock.NewRows(transportColumns))

	got, err := s.FetchTransports(context.Background(), "dept9")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchTransports_QueryError(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT id`).WillReturnError(errors.New("connection reset"))

	_, err := s.FetchTransports(context.Background(), "dept1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSave_AssignsID(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`INSERT INTO transports`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &models.TransportRecord{PatientName: "John Doe", FromDepartmentID: "dept1", ToDepartmentID: "dept2"}
	require.NoError(t, s.Save(context.Background(), rec))

	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_RejectsInvalid(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	err := s.Save(context.Background(), &models.TransportRecord{ID: "1"})
	assert.ErrorIs(t, err, models.ErrMissingPatientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	conn, mock, s := setupMockDB(t)
	defer conn.Close()

	mock.ExpectExec(`DELETE FROM transports`).WithArgs("1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM transports`).WithArgs("2").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.Delete(context.Background(), "1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "2"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
