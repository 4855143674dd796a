package domain

import (
	"fmt"
	"math"
	"time"
)

// Provenance labels reported with every estimate.
const (
	DataSourceClimatology = "NASA POWER Climatology"
	DataSourcePV          = "PVGIS v5_2 PVcalc"
)

// Orientation defaults applied when the caller gives none: a shallow,
// south-facing plane. Deployments override them through configuration.
const (
	DefaultTiltDeg    = 10.0
	DefaultAzimuthDeg = 180.0
)

// GeoPoint is a WGS-84 longitude/latitude pair.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Orientation is the facing of a roof plane.
type Orientation struct {
	TiltDeg    float64 // 0 = flat, 90 = vertical
	AzimuthDeg float64 // 0 = north, 90 = east, 180 = south, 270 = west
}

// Validate checks tilt in [0, 90] and azimuth in [0, 360].
func (o Orientation) Validate() error {
	if math.IsNaN(o.TiltDeg) || o.TiltDeg < 0 || o.TiltDeg > 90 {
		return fmt.Errorf("%w: tilt_deg must be in [0, 90], got %v", ErrInvalidParameters, o.TiltDeg)
	}
	if math.IsNaN(o.AzimuthDeg) || o.AzimuthDeg < 0 || o.AzimuthDeg > 360 {
		return fmt.Errorf("%w: azimuth_deg must be in [0, 360], got %v", ErrInvalidParameters, o.AzimuthDeg)
	}
	return nil
}

// Aspect converts the compass azimuth to the south-referenced aspect sent to
// the PV simulation provider as 180 - azimuth, so a south-facing array is 0.
func (o Orientation) Aspect() float64 {
	return 180 - o.AzimuthDeg
}

// RoofSegment is one measured roof plane.
type RoofSegment struct {
	ID          string
	AreaM2      float64
	Orientation Orientation
}

// IrradianceStats are annual irradiance totals in kWh/m²/yr. A nil field means
// the provider supplied no usable month for that channel.
type IrradianceStats struct {
	GHI *float64
	DNI *float64
	DHI *float64
}

// Assumptions are the effective inputs actually applied to an estimate.
type Assumptions struct {
	PanelAreaM2   float64
	PackingRatio  float64
	TiltDeg       float64
	AzimuthDeg    float64
	LossesPercent float64
}

// EstimateRequest is a validated-shape inbound request. Nil fields fall back
// to defaults.
type EstimateRequest struct {
	Location GeoPoint
	// Polygon is the roof outline as [lon, lat] pairs, or nil when unknown.
	Polygon       [][]float64
	TiltDeg       *float64
	AzimuthDeg    *float64
	SystemKW      *float64
	PanelWatts    *int
	PanelAreaM2   *float64
	PackingRatio  *float64
	LossesPercent *float64
}

// SizingParameters merges the request overrides onto the defaults.
func (r EstimateRequest) SizingParameters() SizingParameters {
	p := DefaultSizingParameters()
	if r.PanelWatts != nil {
		p.PanelWatts = *r.PanelWatts
	}
	if r.PanelAreaM2 != nil {
		p.PanelAreaM2 = *r.PanelAreaM2
	}
	if r.PackingRatio != nil {
		p.PackingRatio = *r.PackingRatio
	}
	if r.LossesPercent != nil {
		p.LossesPercent = *r.LossesPercent
	}
	return p
}

// ClimatologyData holds the monthly daily-mean values for each irradiance
// channel, keyed by month code. Values are raw decoded JSON.
type ClimatologyData struct {
	GHI map[string]any
	DNI map[string]any
	DHI map[string]any
}

// PVQuery is the input to the PV simulation provider.
type PVQuery struct {
	Location      GeoPoint
	TiltDeg       float64
	AspectDeg     float64
	PeakPowerKW   float64
	LossesPercent float64
}

// PVOutput is the PV simulation provider's monthly energy series (kWh) and
// optional annual total, as raw decoded JSON values.
type PVOutput struct {
	Monthly []any
	Annual  any
}

// Estimate is the complete, immutable result for one request.
type Estimate struct {
	ID          string
	GeneratedAt time.Time
	Location    GeoPoint
	Projection  *PlanarProjection // nil when no polygon was supplied
	PanelWatts  int
	Segments    []RoofSegment
	Sizing      SizingResult
	Yield       YieldEstimate
	Irradiance  IrradianceStats
	Assumptions Assumptions
	DataSources []string
}
