package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingID          = errors.New("transport id is required")
	ErrMissingPatientName = errors.New("patient name is required")
	ErrNegativeDuration   = errors.New("estimated duration cannot be negative")
	ErrDuplicateID        = errors.New("duplicate transport id")
)

type MobilityStatus struct {
	Code        string `json:"code"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type TransportRecord struct {
	ID                       string         `json:"id"`
	PatientID                string         `json:"patientId"`
	PatientName              string         `json:"patientName"`
	FromDepartmentID         string         `json:"fromDepartmentId"`
	ToDepartmentID           string         `json:"toDepartmentId"`
	ScheduledDateTime        time.Time      `json:"scheduledDateTime"`
	EstimatedDurationMinutes int            `json:"estimatedDurationMinutes"`
	MobilityStatus           MobilityStatus `json:"mobilityStatus"`
}

// Validate checks the fields a list entry cannot be rendered without.
func (t *TransportRecord) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(t.PatientName) == "" {
		return ErrMissingPatientName
	}
	if t.EstimatedDurationMinutes < 0 {
		return ErrNegativeDuration
	}
	return nil
}

// ValidateTransports validates every record and rejects repeated ids.
func ValidateTransports(transports []TransportRecord) error {
	seen := make(map[string]int, len(transports))
	for i := range transports {
		t := &transports[i]
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transport %d (id %q): %w", i, t.ID, err)
		}
		if first, ok := seen[t.ID]; ok {
			return fmt.Errorf("transport %d (id %q) repeats transport %d: %w", i, t.ID, first, ErrDuplicateID)
		}
		seen[t.ID] = i
	}
	return nil
}

// CloneTransports returns a copy so callers cannot mutate shared state.
func CloneTransports(transports []TransportRecord) []TransportRecord {
	out := make([]TransportRecord, len(transports))
	copy(out, transports)
	return out
}
