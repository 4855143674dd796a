package domain

import (
	"encoding/json"
	"math"
)

// MonthCodes are the month keys used by the climatology provider, January first.
var MonthCodes = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// daysInMonth uses a non-leap calendar.
var daysInMonth = [12]float64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// YieldEstimate is the array's expected energy production.
type YieldEstimate struct {
	MonthlyKWh [12]float64
	AnnualKWh  float64
}

// AnnualizeClimatology converts monthly daily-mean values (per day) into an
// annual total by weighting each present month by its day count. Months that
// are missing or non-numeric contribute nothing and the total is not scaled
// up for them. ok is false when no month is usable.
func AnnualizeClimatology(monthly map[string]any) (total float64, ok bool) {
	for i, code := range MonthCodes {
		v, present := Number(monthly[code])
		if !present {
			continue
		}
		total += v * daysInMonth[i]
		ok = true
	}
	if !ok {
		return 0, false
	}
	return total, true
}

// ReconcileMonthlyEnergy normalizes a provider's monthly energy series to
// exactly 12 values, filling missing or non-numeric months with 0. A numeric
// authoritative annual figure is used verbatim; otherwise the annual figure is
// the sum of the normalized months.
func ReconcileMonthlyEnergy(perMonth []any, authoritativeAnnual any) YieldEstimate {
	var est YieldEstimate
	sum := 0.0
	for i := range est.MonthlyKWh {
		if i >= len(perMonth) {
			break
		}
		if v, ok := Number(perMonth[i]); ok {
			est.MonthlyKWh[i] = v
			sum += v
		}
	}

	if annual, ok := Number(authoritativeAnnual); ok {
		est.AnnualKWh = annual
	} else {
		est.AnnualKWh = sum
	}
	return est
}

// Number extracts a finite float from a decoded JSON value. Strings, booleans,
// nil, objects, NaN and infinities all report ok=false.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
