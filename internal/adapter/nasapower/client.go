// Package nasapower fetches monthly irradiance climatology from the NASA POWER API.
package nasapower

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

const providerLabel = "nasa_power"

// Parameter names requested from POWER.
const (
	paramGHI = "ALLSKY_SFC_SW_DWN"
	paramDNI = "DNI"
	paramDHI = "DHI"
)

// fillValue marks a month POWER has no data for.
const fillValue = -999.0

// Client implements estimate.ClimatologyProvider using the NASA POWER
// climatology point endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a NASA POWER client.
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

// Climatology returns the monthly daily-mean GHI, DNI and DHI for a location.
// Fill values are removed so callers see those months as absent.
func (c *Client) Climatology(ctx context.Context, loc domain.GeoPoint) (domain.ClimatologyData, error) {
	params := url.Values{
		"parameters": {paramGHI + "," + paramDNI + "," + paramDHI},
		"community":  {"solar"},
		"longitude":  {formatFloat(loc.Lon)},
		"latitude":   {formatFloat(loc.Lat)},
		"format":     {"JSON"},
	}

	start := time.Now()
	data, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.ProviderDuration.WithLabelValues(providerLabel).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues(providerLabel, "error").Inc()
		return domain.ClimatologyData{}, err
	}
	c.metrics.ProviderRequests.WithLabelValues(providerLabel, "success").Inc()

	c.logger.Debug("climatology fetched",
		"lat", loc.Lat,
		"lon", loc.Lon,
		"duration", time.Since(start),
	)
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.ClimatologyData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ClimatologyData{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ClimatologyData{}, fmt.Errorf("climatology request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ClimatologyData{}, fmt.Errorf("NASA POWER error: status %d: %s", resp.StatusCode, body)
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.ClimatologyData{}, fmt.Errorf("decode response: %w", err)
	}

	p, _ := field(field(body, "properties"), "parameter").(map[string]any)
	return domain.ClimatologyData{
		GHI: dropFill(p[paramGHI]),
		DNI: dropFill(p[paramDNI]),
		DHI: dropFill(p[paramDHI]),
	}, nil
}

// dropFill returns a copy of a parameter's monthly values with fill values
// removed. Anything other than a non-empty object yields nil.
func dropFill(v any) map[string]any {
	monthly, ok := v.(map[string]any)
	if !ok || len(monthly) == 0 {
		return nil
	}
	out := make(map[string]any, len(monthly))
	for k, v := range monthly {
		if f, ok := domain.Number(v); ok && f == fillValue {
			continue
		}
		out[k] = v
	}
	return out
}

// field returns obj[key] when obj is a JSON object, otherwise nil. The POWER
// body is walked untyped so a payload of the wrong shape degrades to absent.
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
