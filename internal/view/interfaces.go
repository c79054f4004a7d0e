package view

import (
	"context"

	"ambulance-list/internal/models"
)

// TransportFetcher supplies the transports scheduled out of a department.
type TransportFetcher interface {
	FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error)
}
