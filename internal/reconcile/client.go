// Package reconcile talks to the external reconciliation system that holds
// the authoritative status of every device identifier.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/domain"
	"github.com/nikas17mc/digital-technician-dashboard/internal/metrics"
)

// LookupPath is the batch lookup endpoint relative to the base URL.
const LookupPath = "/identifiers/lookup"

// LookupRequest is the lookup body.
type LookupRequest struct {
	Identifiers []string `json:"imeis"`
}

// LookupResponse carries the records the external system knows about.
type LookupResponse struct {
	Records []domain.ExternalRecord `json:"records"`
}

// Client is a resty-based reconciliation client.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a client. token is sent as a bearer token when set.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// Lookup fetches the external records of identifiers, keyed by identifier.
// Identifiers the external system does not know are absent from the map.
func (c *Client) Lookup(ctx context.Context, identifiers []string) (map[string]domain.ExternalRecord, error) {
	requestID := uuid.NewString()

	c.logger.Info("Calling reconciliation API",
		zap.String("request_id", requestID),
		zap.Int("identifiers", len(identifiers)),
	)

	var response LookupResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetBody(LookupRequest{Identifiers: identifiers}).
		SetResult(&response).
		Post(LookupPath)

	if err != nil {
		metrics.ReconcileCalls.WithLabelValues(metrics.StatusError).Inc()
		c.logger.Error("Reconciliation API call failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call reconciliation API: %w", err)
	}

	if resp.IsError() {
		metrics.ReconcileCalls.WithLabelValues(metrics.StatusError).Inc()
		c.logger.Error("Reconciliation API returned error",
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("reconciliation API error: status %d", resp.StatusCode())
	}

	metrics.ReconcileCalls.WithLabelValues(metrics.StatusSuccess).Inc()

	out := make(map[string]domain.ExternalRecord, len(response.Records))
	for _, r := range response.Records {
		if r.Identifier == "" {
			continue
		}
		out[r.Identifier] = r
	}

	c.logger.Info("Reconciliation records retrieved",
		zap.String("request_id", requestID),
		zap.Int("records", len(out)),
	)
	return out, nil
}
