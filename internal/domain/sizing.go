package domain

import (
	"fmt"
	"math"
)

// Sizing defaults. A 400 W module is roughly 1.95 m².
const (
	DefaultPanelWatts    = 400
	DefaultPanelAreaM2   = 1.95
	DefaultPackingRatio  = 0.85
	DefaultLossesPercent = 14.0

	// DefaultSystemKW is used when neither a roof area nor a target capacity is known.
	DefaultSystemKW = 3.0

	// MaxSystemKW is the largest target capacity accepted from a caller.
	MaxSystemKW = 100_000.0

	// maxPanelCount bounds every panel count so float to int conversion cannot overflow.
	maxPanelCount = math.MaxInt32

	maxLossesPercent = 40.0
)

// SizingParameters describes the modules and layout assumptions used to size an array.
type SizingParameters struct {
	PanelWatts    int
	PanelAreaM2   float64
	PackingRatio  float64
	LossesPercent float64
}

// DefaultSizingParameters returns the parameters applied when the caller sets none.
func DefaultSizingParameters() SizingParameters {
	return SizingParameters{
		PanelWatts:    DefaultPanelWatts,
		PanelAreaM2:   DefaultPanelAreaM2,
		PackingRatio:  DefaultPackingRatio,
		LossesPercent: DefaultLossesPercent,
	}
}

// Validate checks every parameter against its allowed range.
func (p SizingParameters) Validate() error {
	switch {
	case p.PanelWatts <= 0:
		return fmt.Errorf("%w: panel_watts must be > 0, got %d", ErrInvalidParameters, p.PanelWatts)
	case !(p.PanelAreaM2 > 0) || math.IsInf(p.PanelAreaM2, 0):
		return fmt.Errorf("%w: panel_area_m2 must be > 0, got %v", ErrInvalidParameters, p.PanelAreaM2)
	case !(p.PackingRatio > 0 && p.PackingRatio <= 1):
		return fmt.Errorf("%w: packing_ratio must be in (0, 1], got %v", ErrInvalidParameters, p.PackingRatio)
	case !(p.LossesPercent >= 0 && p.LossesPercent <= maxLossesPercent):
		return fmt.Errorf("%w: losses_percent must be in [0, 40], got %v", ErrInvalidParameters, p.LossesPercent)
	}
	return nil
}

// ValidateSystemKW checks a caller's target capacity.
func ValidateSystemKW(kw float64) error {
	if !(kw > 0 && kw <= MaxSystemKW) {
		return fmt.Errorf("%w: system_kw must be in (0, %v], got %v", ErrInvalidParameters, MaxSystemKW, kw)
	}
	return nil
}

// SizingResult is the panel count and rated capacity of the proposed array.
type SizingResult struct {
	MaxPanels         *int // nil when no roof area is known
	RecommendedPanels int
	SystemKW          float64
}

// Size turns a roof area, module parameters, and an optional target capacity
// into a panel count and capacity.
//
// A target capacity always wins and is converted to a panel count; the roof
// limit is still reported but not enforced, so the two may disagree. Without a
// target, the roof is filled. With neither, a DefaultSystemKW array is assumed.
// A roof too small for a single panel is treated like an unknown roof.
func Size(areaM2 *float64, params SizingParameters, userKW *float64) SizingResult {
	var res SizingResult

	if areaM2 != nil {
		maxPanels := toPanelCount(math.Floor(*areaM2 * params.PackingRatio / params.PanelAreaM2))
		res.MaxPanels = &maxPanels
	}

	switch {
	case userKW != nil:
		res.SystemKW = *userKW
		res.RecommendedPanels = panelsForCapacity(*userKW, params.PanelWatts)
	case res.MaxPanels != nil && *res.MaxPanels > 0:
		res.RecommendedPanels = *res.MaxPanels
		res.SystemKW = float64(res.RecommendedPanels) * float64(params.PanelWatts) / 1000
	default:
		res.SystemKW = DefaultSystemKW
		res.RecommendedPanels = panelsForCapacity(DefaultSystemKW, params.PanelWatts)
	}
	return res
}

// panelsForCapacity rounds half to even, so 7.5 panels becomes 8 and 6.5 becomes 6.
func panelsForCapacity(kw float64, panelWatts int) int {
	return toPanelCount(math.RoundToEven(kw * 1000 / float64(panelWatts)))
}

// toPanelCount saturates n into [0, maxPanelCount]. NaN is 0.
func toPanelCount(n float64) int {
	switch {
	case !(n > 0):
		return 0
	case n >= maxPanelCount:
		return maxPanelCount
	}
	return int(n)
}
