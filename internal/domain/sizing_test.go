package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestSize(t *testing.T) {
	defaults := DefaultSizingParameters()

	tests := []struct {
		name       string
		area       *float64
		params     SizingParameters
		userKW     *float64
		wantMax    *int
		wantPanels int
		wantKW     float64
	}{
		{
			name:       "roof area fills the roof",
			area:       ptr(100.0),
			params:     defaults,
			wantMax:    ptr(43),
			wantPanels: 43,
			wantKW:     17.2,
		},
		{
			name:       "no roof and no target falls back to 3 kW",
			params:     defaults,
			wantPanels: 8,
			wantKW:     3.0,
		},
		{
			name:       "target capacity without roof",
			params:     defaults,
			userKW:     ptr(5.0),
			wantPanels: 12, // 12.5 rounds half to even
			wantKW:     5.0,
		},
		{
			name:       "target capacity exceeding the roof is not clamped",
			area:       ptr(20.0),
			params:     defaults,
			userKW:     ptr(10.0),
			wantMax:    ptr(8),
			wantPanels: 25,
			wantKW:     10.0,
		},
		{
			name:       "roof too small for one panel falls back to default",
			area:       ptr(1.0),
			params:     defaults,
			wantMax:    ptr(0),
			wantPanels: 8,
			wantKW:     3.0,
		},
		{
			name:       "zero area is known but empty",
			area:       ptr(0.0),
			params:     defaults,
			wantMax:    ptr(0),
			wantPanels: 8,
			wantKW:     3.0,
		},
		{
			name:       "custom modules",
			area:       ptr(60.0),
			params:     SizingParameters{PanelWatts: 350, PanelAreaM2: 1.7, PackingRatio: 0.7, LossesPercent: 10},
			wantMax:    ptr(24),
			wantPanels: 24,
			wantKW:     8.4,
		},
		{
			name:       "default fallback with 300 W modules",
			params:     SizingParameters{PanelWatts: 300, PanelAreaM2: 1.6, PackingRatio: 0.85},
			wantPanels: 10,
			wantKW:     3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Size(tt.area, tt.params, tt.userKW)

			if tt.wantMax == nil {
				assert.Nil(t, got.MaxPanels)
			} else {
				require.NotNil(t, got.MaxPanels)
				assert.Equal(t, *tt.wantMax, *got.MaxPanels)
			}
			assert.Equal(t, tt.wantPanels, got.RecommendedPanels)
			assert.InDelta(t, tt.wantKW, got.SystemKW, 1e-9)
		})
	}
}

func TestSize_ScenarioExactCapacity(t *testing.T) {
	got := Size(ptr(100.0), DefaultSizingParameters(), nil)
	assert.Equal(t, 17.2, got.SystemKW)
}

func TestSize_DefaultCapacityIgnoresParameters(t *testing.T) {
	for _, params := range []SizingParameters{
		DefaultSizingParameters(),
		{PanelWatts: 250, PanelAreaM2: 1.2, PackingRatio: 0.5, LossesPercent: 0},
		{PanelWatts: 600, PanelAreaM2: 2.8, PackingRatio: 1, LossesPercent: 40},
	} {
		got := Size(nil, params, nil)
		assert.Equal(t, 3.0, got.SystemKW)
		assert.Nil(t, got.MaxPanels)
	}
}

func TestSize_UserCapacityIndependentOfArea(t *testing.T) {
	params := DefaultSizingParameters()
	for _, kw := range []float64{0.4, 2.2, 6.6, 12.34, 50} {
		want := int(math.RoundToEven(kw * 1000 / float64(params.PanelWatts)))
		for _, area := range []*float64{nil, ptr(5.0), ptr(80.0), ptr(1000.0)} {
			got := Size(area, params, ptr(kw))
			assert.Equal(t, want, got.RecommendedPanels)
			assert.Equal(t, kw, got.SystemKW)
		}
	}
}

func TestSize_MaxPanelsBounded(t *testing.T) {
	params := DefaultSizingParameters()
	for area := 0.0; area <= 500; area += 7.3 {
		got := Size(ptr(area), params, nil)
		require.NotNil(t, got.MaxPanels)
		assert.GreaterOrEqual(t, *got.MaxPanels, 0)
		assert.LessOrEqual(t, float64(*got.MaxPanels), math.Floor(area*params.PackingRatio/params.PanelAreaM2))
	}
}

func TestSize_PanelCountsSaturate(t *testing.T) {
	got := Size(nil, DefaultSizingParameters(), ptr(1e300))
	assert.Equal(t, maxPanelCount, got.RecommendedPanels)

	tiny := DefaultSizingParameters()
	tiny.PanelAreaM2 = 1e-300
	got = Size(ptr(100.0), tiny, nil)
	require.NotNil(t, got.MaxPanels)
	assert.Equal(t, maxPanelCount, *got.MaxPanels)
	assert.Equal(t, maxPanelCount, got.RecommendedPanels)
	assert.Positive(t, got.SystemKW)
}

func TestValidateSystemKW(t *testing.T) {
	for _, kw := range []float64{0.001, 3, MaxSystemKW} {
		assert.NoError(t, ValidateSystemKW(kw), kw)
	}
	for _, kw := range []float64{0, -1, MaxSystemKW + 1, 1e300, math.Inf(1), math.NaN()} {
		err := ValidateSystemKW(kw)
		require.Error(t, err, kw)
		assert.ErrorIs(t, err, ErrInvalidParameters)
		assert.Contains(t, err.Error(), "system_kw")
	}
}

func TestSizingParameters_Validate(t *testing.T) {
	require.NoError(t, DefaultSizingParameters().Validate())

	tests := []struct {
		name   string
		mutate func(*SizingParameters)
		field  string
	}{
		{"zero watts", func(p *SizingParameters) { p.PanelWatts = 0 }, "panel_watts"},
		{"negative area", func(p *SizingParameters) { p.PanelAreaM2 = -1 }, "panel_area_m2"},
		{"NaN area", func(p *SizingParameters) { p.PanelAreaM2 = math.NaN() }, "panel_area_m2"},
		{"zero packing", func(p *SizingParameters) { p.PackingRatio = 0 }, "packing_ratio"},
		{"packing above one", func(p *SizingParameters) { p.PackingRatio = 1.01 }, "packing_ratio"},
		{"negative losses", func(p *SizingParameters) { p.LossesPercent = -0.5 }, "losses_percent"},
		{"losses above 40", func(p *SizingParameters) { p.LossesPercent = 41 }, "losses_percent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultSizingParameters()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameters)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
