package nasapower

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/couchcryptid/solar-estimate-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const climatologyBody = `{
  "type": "Feature",
  "geometry": {"type": "Point", "coordinates": [13.4, 52.5, 40.0]},
  "properties": {
    "parameter": {
      "ALLSKY_SFC_SW_DWN": {"JAN": 0.66, "FEB": 1.32, "MAR": 2.5, "APR": 3.9, "MAY": 4.9, "JUN": 5.2,
                            "JUL": 5.0, "AUG": 4.3, "SEP": 3.0, "OCT": 1.7, "NOV": 0.8, "DEC": 0.5, "ANN": 2.82},
      "DNI": {"JAN": -999, "FEB": 1.5, "MAR": 2.4},
      "DHI": {}
    }
  }
}`

func TestClient_Climatology_Success(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, climatologyBody, func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "ALLSKY_SFC_SW_DWN,DNI,DHI", q.Get("parameters"))
		assert.Equal(t, "solar", q.Get("community"))
		assert.Equal(t, "13.4", q.Get("longitude"))
		assert.Equal(t, "52.5", q.Get("latitude"))
		assert.Equal(t, "JSON", q.Get("format"))
	})

	c := testClient(srv.URL)
	data, err := c.Climatology(context.Background(), domain.GeoPoint{Lon: 13.4, Lat: 52.5})
	require.NoError(t, err)

	assert.Equal(t, 0.66, data.GHI["JAN"])
	assert.Equal(t, 0.5, data.GHI["DEC"])
	assert.Len(t, data.GHI, 13)

	assert.NotContains(t, data.DNI, "JAN", "fill value is dropped")
	assert.Equal(t, 1.5, data.DNI["FEB"])
	assert.Nil(t, data.DHI)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues(providerLabel, "success")))
}

func TestClient_Climatology_FeedsAnnualization(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, climatologyBody, nil)

	data, err := testClient(srv.URL).Climatology(context.Background(), domain.GeoPoint{Lon: 13.4, Lat: 52.5})
	require.NoError(t, err)

	dni, ok := domain.AnnualizeClimatology(data.DNI)
	require.True(t, ok)
	assert.InDelta(t, 1.5*28+2.4*31, dni, 1e-9)

	_, ok = domain.AnnualizeClimatology(data.DHI)
	assert.False(t, ok)
}

func TestClient_Climatology_MalformedParametersDegrade(t *testing.T) {
	body := `{"properties": {"parameter": {"ALLSKY_SFC_SW_DWN": "unavailable", "DNI": [1, 2]}}}`
	srv := jsonServer(t, http.StatusOK, body, nil)

	data, err := testClient(srv.URL).Climatology(context.Background(), domain.GeoPoint{Lon: 0, Lat: 0})
	require.NoError(t, err)
	assert.Nil(t, data.GHI)
	assert.Nil(t, data.DNI)
	assert.Nil(t, data.DHI)
}

func TestClient_Climatology_WrongShapeDegrades(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing properties", `{"messages": ["no data"]}`},
		{"properties is a string", `{"properties": "x"}`},
		{"parameter is a list", `{"properties": {"parameter": []}}`},
		{"top-level array", `[1, 2]`},
		{"null body", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := jsonServer(t, http.StatusOK, tt.body, nil)

			data, err := testClient(srv.URL).Climatology(context.Background(), domain.GeoPoint{Lon: 0, Lat: 0})
			require.NoError(t, err)
			assert.Equal(t, domain.ClimatologyData{}, data)

			_, ok := domain.AnnualizeClimatology(data.GHI)
			assert.False(t, ok)
		})
	}
}

func TestClient_Climatology_APIError(t *testing.T) {
	srv := jsonServer(t, http.StatusUnprocessableEntity, `{"messages": ["latitude out of range"]}`, nil)

	c := testClient(srv.URL)
	_, err := c.Climatology(context.Background(), domain.GeoPoint{Lon: 0, Lat: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues(providerLabel, "error")))
}

func TestClient_Climatology_InvalidJSON(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `not json`, nil)

	_, err := testClient(srv.URL).Climatology(context.Background(), domain.GeoPoint{Lon: 0, Lat: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Climatology_ContextCanceled(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, climatologyBody, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Climatology(ctx, domain.GeoPoint{Lon: 0, Lat: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Climatology_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	_, err := c.Climatology(context.Background(), domain.GeoPoint{Lon: 0, Lat: 0})
	require.Error(t, err)
}
