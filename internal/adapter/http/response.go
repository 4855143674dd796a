package http

import (
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	imageryQuality = "EXTERNAL"
	insightsNote   = "Computed from NASA POWER + PVGIS. Not Google Solar API."
)

type estimateResponse struct {
	EstimateID       string           `json:"estimateId"`
	GeneratedAt      time.Time        `json:"generatedAt"`
	BuildingInsights buildingInsights `json:"buildingInsights"`
	SolarPotential   solarPotential   `json:"solarPotential"`
}

type buildingInsights struct {
	ImageryQuality string `json:"imageryQuality"`
	Note           string `json:"note"`
}

type solarPotential struct {
	PanelCapacityWatts    int             `json:"panelCapacityWatts"`
	MaxArrayPanelsCount   *int            `json:"maxArrayPanelsCount"`
	RecommendedPanelCount int             `json:"recommendedPanelCount"`
	CapacityKW            float64         `json:"capacityKw"`
	AnnualKWh             float64         `json:"annualKwh"`
	MonthlyKWh            []float64       `json:"monthlyKwh"`
	RoofSegments          []roofSegment   `json:"roofSegments"`
	IrradianceStats       irradianceStats `json:"irradianceStats"`
	Assumptions           assumptions     `json:"assumptions"`
	DataSources           []string        `json:"dataSources"`
}

type roofSegment struct {
	ID         string  `json:"id"`
	AreaM2     float64 `json:"area_m2"`
	TiltDeg    float64 `json:"tilt_deg"`
	AzimuthDeg float64 `json:"azimuth_deg"`
	Projection string  `json:"projection,omitempty"`
}

type irradianceStats struct {
	GHI *float64 `json:"GHI_kWh_m2_yr"`
	DNI *float64 `json:"DNI_kWh_m2_yr"`
	DHI *float64 `json:"DHI_kWh_m2_yr"`
}

type assumptions struct {
	PanelAreaM2   float64 `json:"panel_area_m2"`
	PackingRatio  float64 `json:"packing_ratio"`
	TiltDeg       float64 `json:"tilt_deg"`
	AzimuthDeg    float64 `json:"azimuth_deg"`
	LossesPercent float64 `json:"losses_percent"`
}

func newEstimateResponse(est domain.Estimate) estimateResponse {
	monthly := make([]float64, len(est.Yield.MonthlyKWh))
	for i, v := range est.Yield.MonthlyKWh {
		monthly[i] = round(v, 1)
	}

	var projection string
	if est.Projection != nil {
		projection = est.Projection.String()
	}
	segments := make([]roofSegment, 0, len(est.Segments))
	for _, seg := range est.Segments {
		segments = append(segments, roofSegment{
			ID:         seg.ID,
			AreaM2:     round(seg.AreaM2, 2),
			TiltDeg:    round(seg.Orientation.TiltDeg, 2),
			AzimuthDeg: round(seg.Orientation.AzimuthDeg, 1),
			Projection: projection,
		})
	}

	return estimateResponse{
		EstimateID:  est.ID,
		GeneratedAt: est.GeneratedAt,
		BuildingInsights: buildingInsights{
			ImageryQuality: imageryQuality,
			Note:           insightsNote,
		},
		SolarPotential: solarPotential{
			PanelCapacityWatts:    est.PanelWatts,
			MaxArrayPanelsCount:   est.Sizing.MaxPanels,
			RecommendedPanelCount: est.Sizing.RecommendedPanels,
			CapacityKW:            round(est.Sizing.SystemKW, 3),
			AnnualKWh:             round(est.Yield.AnnualKWh, 1),
			MonthlyKWh:            monthly,
			RoofSegments:          segments,
			IrradianceStats: irradianceStats{
				GHI: est.Irradiance.GHI,
				DNI: est.Irradiance.DNI,
				DHI: est.Irradiance.DHI,
			},
			Assumptions: assumptions{
				PanelAreaM2:   est.Assumptions.PanelAreaM2,
				PackingRatio:  est.Assumptions.PackingRatio,
				TiltDeg:       est.Assumptions.TiltDeg,
				AzimuthDeg:    est.Assumptions.AzimuthDeg,
				LossesPercent: est.Assumptions.LossesPercent,
			},
			DataSources: est.DataSources,
		},
	}
}

// round rounds half away from zero on the shortest decimal form of v, so
// 0.125 becomes 0.13 at two places.
func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
