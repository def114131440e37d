package hours

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/grupoandino/portal-approvals/internal/application/port"
	"github.com/grupoandino/portal-approvals/internal/domain/entity"
)

// Config holds hour calculator service configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements port.HourCalculator against the portal's hour
// splitting service. The service owns the day/night and holiday
// classification rules; this side only ships entries and reads totals.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new hour calculator client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type breakdownRequest struct {
	Entries []breakdownEntry `json:"entries"`
}

type breakdownEntry struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type breakdownResponse struct {
	Regular      float64 `json:"regular"`
	Double       float64 `json:"double"`
	DoubleDouble float64 `json:"double_double"`
}

// ComputeHourBreakdown classifies the worked entries into regular,
// double and double-double hour totals.
func (c *Client) ComputeHourBreakdown(ctx context.Context, entries []entity.OvertimeEntry) (*entity.HourBreakdown, error) {
	payload := breakdownRequest{Entries: make([]breakdownEntry, 0, len(entries))}
	for _, e := range entries {
		payload.Entries = append(payload.Entries, breakdownEntry{
			Day:   e.Day.Format("2006-01-02"),
			Start: e.Start,
			End:   e.End,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal breakdown request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/hours/breakdown", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build breakdown request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Hour calculator request failed", zap.Error(err))
		return nil, fmt.Errorf("hour calculator request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hour calculator returned status %d", resp.StatusCode)
	}

	var result breakdownResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode breakdown response: %w", err)
	}

	return &entity.HourBreakdown{
		Regular:      result.Regular,
		Double:       result.Double,
		DoubleDouble: result.DoubleDouble,
	}, nil
}

// Verify interface compliance
var _ port.HourCalculator = (*Client)(nil)
