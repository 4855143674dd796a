// Command roofsize measures roof outlines from a GeoJSON file and sizes a PV
// array for each one, without calling any irradiance or PV provider. It
// accepts a FeatureCollection, a single Feature, or a bare Polygon or
// MultiPolygon geometry. Each polygon's outer ring is one roof.
//
// Usage:
//
//	go run ./cmd/roofsize -in roofs.geojson
//	go run ./cmd/roofsize -panel-watts 440 -panel-area 2.0 < roofs.geojson
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// roof is one outer ring to measure.
type roof struct {
	name string
	ring orb.Ring
}

// sizing is the measured and sized result for one roof.
type sizing struct {
	name   string
	area   float64
	proj   domain.PlanarProjection
	result domain.SizingResult
	err    error
}

func main() {
	in := flag.String("in", "", "GeoJSON input file (default stdin)")
	panelWatts := flag.Int("panel-watts", domain.DefaultPanelWatts, "rated module power in watts")
	panelArea := flag.Float64("panel-area", domain.DefaultPanelAreaM2, "module footprint in square meters")
	packing := flag.Float64("packing", domain.DefaultPackingRatio, "usable fraction of roof area, in (0, 1]")
	systemKW := flag.Float64("system-kw", 0, "target capacity in kW; 0 fills the roof")
	flag.Parse()

	params := domain.SizingParameters{
		PanelWatts:    *panelWatts,
		PanelAreaM2:   *panelArea,
		PackingRatio:  *packing,
		LossesPercent: domain.DefaultLossesPercent,
	}
	if err := params.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(2)
	}
	var userKW *float64
	if *systemKW > 0 {
		userKW = systemKW
	}

	data, err := readInput(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read input: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(data, os.Stdout, params, userKW))
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func run(data []byte, w io.Writer, params domain.SizingParameters, userKW *float64) int {
	roofs, err := loadRoofs(data)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}
	if len(roofs) == 0 {
		fmt.Fprintln(w, "FATAL: no polygons in input")
		return 1
	}

	results := make([]sizing, len(roofs))
	for i, rf := range roofs {
		results[i] = size(rf, params, userKW)
	}
	return report(w, results)
}

func size(rf roof, params domain.SizingParameters, userKW *float64) sizing {
	out := sizing{name: rf.name}

	coords := make([][]float64, len(rf.ring))
	for i, p := range rf.ring {
		coords[i] = []float64{p.Lon(), p.Lat()}
	}
	poly, err := domain.NewRoofPolygon(coords)
	if err != nil {
		out.err = err
		return out
	}
	area, err := domain.Area(poly)
	if err != nil {
		out.err = err
		return out
	}
	proj, err := poly.Projection()
	if err != nil {
		out.err = err
		return out
	}

	out.area = area
	out.proj = proj
	out.result = domain.Size(&area, params, userKW)
	return out
}

func report(w io.Writer, results []sizing) int {
	fmt.Fprintf(w, "%-24s %12s %-11s %9s %12s %10s\n", "ROOF", "AREA_M2", "CRS", "MAX", "RECOMMENDED", "KW")
	failed := 0
	totalKW := 0.0
	for _, s := range results {
		if s.err != nil {
			failed++
			fmt.Fprintf(w, "%-24s ERROR: %v\n", s.name, s.err)
			continue
		}
		totalKW += s.result.SystemKW
		fmt.Fprintf(w, "%-24s %12.2f %-11s %9d %12d %10.3f\n",
			s.name, s.area, s.proj, *s.result.MaxPanels, s.result.RecommendedPanels, s.result.SystemKW)
	}

	fmt.Fprintf(w, "\n%d roofs, %d failed, %.3f kW total\n", len(results), failed, totalKW)
	if failed > 0 {
		return 1
	}
	return 0
}

// ── Input loading ──

func loadRoofs(data []byte) ([]roof, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var features []*geojson.Feature
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		features = fc.Features
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		features = []*geojson.Feature{f}
	case "":
		return nil, errors.New("parse geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		features = []*geojson.Feature{geojson.NewFeature(g.Geometry())}
	}

	var roofs []roof
	for i, f := range features {
		name := featureName(f, i)
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				roofs = append(roofs, roof{name: name, ring: g[0]})
			}
		case orb.MultiPolygon:
			for j, p := range g {
				if len(p) > 0 {
					roofs = append(roofs, roof{name: fmt.Sprintf("%s/%d", name, j), ring: p[0]})
				}
			}
		}
	}
	return roofs, nil
}

// featureName prefers a "name" property, then the feature id, then its index.
func featureName(f *geojson.Feature, i int) string {
	if s, ok := f.Properties["name"].(string); ok && s != "" {
		return s
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return fmt.Sprintf("roof_%d", i)
}
