// Package pvgis runs grid-connected PV simulations against the PVGIS PVcalc API.
package pvgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/couchcryptid/solar-estimate-service/internal/observability"
)

const providerLabel = "pvgis"

// Client implements estimate.PVProvider using the PVGIS PVcalc endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a PVGIS client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// PVCalc simulates the monthly energy output of a fixed-mount array.
func (c *Client) PVCalc(ctx context.Context, q domain.PVQuery) (domain.PVOutput, error) {
	params := url.Values{
		"lat":          {formatFloat(q.Location.Lat)},
		"lon":          {formatFloat(q.Location.Lon)},
		"peakpower":    {formatFloat(q.PeakPowerKW)},
		"loss":         {formatFloat(q.LossesPercent)},
		"angle":        {formatFloat(q.TiltDeg)},
		"aspect":       {formatFloat(q.AspectDeg)},
		"outputformat": {"json"},
	}

	start := time.Now()
	out, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderDuration.WithLabelValues(providerLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerLabel, "error").Inc()
		return domain.PVOutput{}, err
	}
	c.metrics.ProviderRequests.WithLabelValues(providerLabel, "success").Inc()

	c.logger.Debug("pv simulation fetched",
		"lat", q.Location.Lat,
		"lon", q.Location.Lon,
		"peak_kw", q.PeakPowerKW,
		"duration", time.Since(start),
	)
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.PVOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.PVOutput{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PVOutput{}, fmt.Errorf("pv simulation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.PVOutput{}, fmt.Errorf("PVGIS error: status %d: %s", resp.StatusCode, body)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.PVOutput{}, fmt.Errorf("decode response: %w", err)
	}

	// outputs is left untyped because its layout varies between releases.
	outputs := field(body, "outputs")
	return domain.PVOutput{
		Monthly: monthlySeries(field(outputs, "monthly")),
		Annual:  annualTotal(field(outputs, "totals")),
	}, nil
}

// monthlySeries extracts the per-month energy (E_m) of the fixed array. Two
// layouts are recognized: an object keyed "1".."12" under E_d, and a list of
// month records. Any other layout, or an object missing a month, yields twelve
// absent values.
func monthlySeries(monthly any) []any {
	fixed := field(monthly, "fixed")

	switch f := fixed.(type) {
	case map[string]any:
		byMonth, ok := f["E_d"].(map[string]any)
		if !ok {
			break
		}
		series := make([]any, 12)
		for i := range series {
			rec, ok := byMonth[strconv.Itoa(i+1)].(map[string]any)
			if !ok {
				return make([]any, 12)
			}
			series[i] = rec["E_m"]
		}
		return series
	case []any:
		series := make([]any, len(f))
		for i, rec := range f {
			series[i] = field(rec, "E_m")
		}
		return series
	}
	return make([]any, 12)
}

// annualTotal returns outputs.totals.fixed.E_y, or nil when absent.
func annualTotal(totals any) any {
	return field(field(totals, "fixed"), "E_y")
}

// field returns obj[key] when obj is a JSON object, otherwise nil.
func field(obj any, key string) any {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
