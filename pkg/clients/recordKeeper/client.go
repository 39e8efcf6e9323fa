// Package recordKeeper talks to the backend that keeps an off-chain copy of
// stakes opened from the claiming contract.
package recordKeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/internal/metrics"
	"github.com/claimstake/console/internal/metrics/metricsTypes"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrNoEndpoint = errors.New("record keeper endpoint is not configured")

// StakeSummary is the backend's record of one stake. Amounts are raw token
// units written as bare JSON numbers with every digit kept.
type StakeSummary struct {
	ID       string      `json:"id,omitempty"`
	User     string      `json:"user"`
	Duration uint64      `json:"duration"`
	Apy      uint64      `json:"apy"`
	TrxHash  string      `json:"trx_hash"`
	Index    uint64      `json:"index"`
	Amount   json.Number `json:"amount"`
	StakedOn uint64      `json:"staked_on"`
	Rewards  json.Number `json:"rewards"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.MetricsSink
	logger     *zap.Logger
}

func NewClient(cfg *config.BackendConfig, ms *metrics.MetricsSink, l *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		metrics: ms,
		logger:  l,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

func (c *Client) do(ctx context.Context, op string, method string, url string, payload interface{}, dest interface{}) error {
	if !c.Enabled() {
		return ErrNoEndpoint
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "failed to marshal payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if payload != nil {
		req.Header.Set("content-type", "application/json")
	}

	c.logger.Sugar().Debugw("Making record keeper request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", req.URL.String()),
	)

	status := "failure"
	defer func() {
		_ = c.metrics.Incr(metricsTypes.Metric_Incr_RecordKeeperRequest, []metricsTypes.MetricsLabel{
			{Name: "op", Value: op},
			{Name: "status", Value: status},
		}, 1)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if dest != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, dest); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	status = "success"
	return nil
}

// ListStakes returns the recorded stakes of a user.
func (c *Client) ListStakes(ctx context.Context, user string) ([]*StakeSummary, error) {
	url := fmt.Sprintf("%s/stakes", c.baseURL)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Add("user", user)
	req.URL.RawQuery = q.Encode()

	stakes := make([]*StakeSummary, 0)
	if err := c.do(ctx, "getStakes", http.MethodGet, req.URL.String(), nil, &stakes); err != nil {
		return nil, err
	}
	return stakes, nil
}

func (c *Client) CreateStake(ctx context.Context, stake *StakeSummary) (*StakeSummary, error) {
	created := &StakeSummary{}
	if err := c.do(ctx, "createStake", http.MethodPost, fmt.Sprintf("%s/stakes", c.baseURL), stake, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateStake(ctx context.Context, id string, stake *StakeSummary) (*StakeSummary, error) {
	if id == "" {
		return nil, errors.New("stake id is required")
	}
	updated := &StakeSummary{}
	if err := c.do(ctx, "updateStake", http.MethodPut, fmt.Sprintf("%s/stakes/%s", c.baseURL, id), stake, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
