package domain

import "time"

// EstimateEvent is the compact record published when an estimate completes.
type EstimateEvent struct {
	ID                string    `json:"id"`
	Lat               float64   `json:"lat"`
	Lon               float64   `json:"lon"`
	RoofAreaM2        *float64  `json:"roof_area_m2"` // nil when no polygon was given
	Projection        string    `json:"projection,omitempty"`
	TiltDeg           float64   `json:"tilt_deg"`
	AzimuthDeg        float64   `json:"azimuth_deg"`
	MaxPanels         *int      `json:"max_panels"`
	RecommendedPanels int       `json:"recommended_panels"`
	SystemKW          float64   `json:"system_kw"`
	AnnualKWh         float64   `json:"annual_kwh"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// NewEstimateEvent summarizes an estimate for publishing.
func NewEstimateEvent(est Estimate) EstimateEvent {
	ev := EstimateEvent{
		ID:                est.ID,
		Lat:               est.Location.Lat,
		Lon:               est.Location.Lon,
		TiltDeg:           est.Assumptions.TiltDeg,
		AzimuthDeg:        est.Assumptions.AzimuthDeg,
		MaxPanels:         est.Sizing.MaxPanels,
		RecommendedPanels: est.Sizing.RecommendedPanels,
		SystemKW:          est.Sizing.SystemKW,
		AnnualKWh:         est.Yield.AnnualKWh,
		GeneratedAt:       est.GeneratedAt,
	}
	if len(est.Segments) > 0 {
		area := 0.0
		for _, seg := range est.Segments {
			area += seg.AreaM2
		}
		ev.RoofAreaM2 = &area
	}
	if est.Projection != nil {
		ev.Projection = est.Projection.String()
	}
	return ev
}
