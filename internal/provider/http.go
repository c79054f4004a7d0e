package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ambulance-list/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrUpstream = errors.New("transport api returned an error")

const transportsPath = "/departments/{departmentId}/transports"

// HTTPProvider fetches transports from the ambulance web API at apiBase.
type HTTPProvider struct {
	client *resty.Client
	logger *zap.Logger
}

func NewHTTPProvider(apiBase string, logger *zap.Logger) *HTTPProvider {
	client := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPProvider{client: client, logger: logger}
}

func (p *HTTPProvider) FetchTransports(ctx context.Context, departmentID string) ([]models.TransportRecord, error) {
	var transports []models.TransportRecord
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("departmentId", departmentID).
		SetResult(&transports).
		Get(transportsPath)
	if err != nil {
		p.logger.Error("Transport API call failed",
			zap.String("department_id", departmentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch transports for %s: %w", departmentID, err)
	}

	if resp.IsError() {
		p.logger.Error("Transport API returned error",
			zap.String("department_id", departmentID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: status %d for department %s", ErrUpstream, resp.StatusCode(), departmentID)
	}

	if transports == nil {
		transports = []models.TransportRecord{}
	}

	p.logger.Debug("Fetched transports",
		zap.String("department_id", departmentID),
		zap.Int("count", len(transports)),
	)
	return transports, nil
}
