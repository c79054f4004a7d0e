package view

import (
	"context"
	"time"

	"ambulance-list/internal/models"
)

type MockFetcher struct {
	FetchTransportsFunc func(ctx context.Context, departmentID string) ([]models.TransportRecord, error)
}

func (m *MockFetcher) FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
	return m.FetchTransportsFunc(ctx, departmentID)
}

func staticFetcher(ts []models.TransportRecord, err error) *MockFetcher {
	return &MockFetcher{
		FetchTransportsFunc: func(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
			return ts, err
		},
	}
}

func transport(id, name string) models.TransportRecord {
	return models.TransportRecord{
		ID:                       id,
		PatientID:                "p" + id,
		PatientName:              name,
		FromDepartmentID:         "dept1",
		ToDepartmentID:           "dept2",
		ScheduledDateTime:        time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		EstimatedDurationMinutes: 30,
		MobilityStatus:           models.MobilityStatus{Code: "WALK", Value: "Walking"},
	}
}
