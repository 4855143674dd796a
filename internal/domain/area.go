package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RoofPolygon is a roof outline in geographic coordinates. Construct it with
// NewRoofPolygon; the ring is copied and never modified afterwards.
type RoofPolygon struct {
	ring orb.Ring
}

// NewRoofPolygon builds a RoofPolygon from [lon, lat] pairs. The ring is
// closed if the caller left it open. Every vertex must be a valid coordinate.
func NewRoofPolygon(coords [][]float64) (RoofPolygon, error) {
	ring := make(orb.Ring, 0, len(coords)+1)
	for i, c := range coords {
		if len(c) < 2 {
			return RoofPolygon{}, fmt.Errorf("%w: vertex %d has %d ordinates", ErrInvalidCoordinate, i, len(c))
		}
		if err := ValidateCoordinate(c[0], c[1]); err != nil {
			return RoofPolygon{}, fmt.Errorf("vertex %d: %w", i, err)
		}
		ring = append(ring, orb.Point{c[0], c[1]})
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return RoofPolygon{ring: ring}, nil
}

// Ring returns a copy of the closed outline.
func (p RoofPolygon) Ring() orb.Ring {
	return append(orb.Ring(nil), p.ring...)
}

// DistinctVertices counts unique vertices, ignoring repeats such as the
// closing point.
func (p RoofPolygon) DistinctVertices() int {
	seen := make(map[orb.Point]struct{}, len(p.ring))
	for _, pt := range p.ring {
		seen[pt] = struct{}{}
	}
	return len(seen)
}

// Centroid returns the area-weighted centroid of the outline in lon/lat.
func (p RoofPolygon) Centroid() orb.Point {
	c, _ := planar.CentroidArea(p.ring)
	return c
}

// Projection selects the UTM zone of the outline's centroid.
func (p RoofPolygon) Projection() (PlanarProjection, error) {
	c := p.Centroid()
	return SelectProjection(c.Lon(), c.Lat())
}

// Area returns the ground area of the roof outline in square meters. The
// outline is projected into the UTM zone of its centroid and measured with
// the shoelace formula; the result does not depend on winding order.
func Area(p RoofPolygon) (float64, error) {
	if n := p.DistinctVertices(); n < 3 {
		return 0, fmt.Errorf("%w: %d distinct vertices, need at least 3", ErrDegeneratePolygon, n)
	}

	proj, err := p.Projection()
	if err != nil {
		return 0, fmt.Errorf("select projection: %w", err)
	}

	projected := make(orb.Ring, len(p.ring))
	for i, pt := range p.ring {
		projected[i] = proj.Forward(pt)
	}
	return math.Abs(signedArea(projected)), nil
}

// signedArea applies the shoelace formula. Positive for counterclockwise rings.
// Coordinates are offset by the first vertex to keep UTM magnitudes (1e5..1e7 m)
// from swamping roof-sized differences.
func signedArea(r orb.Ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	ox, oy := r[0][0], r[0][1]
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += (r[i][0] - ox) * (r[j][1] - oy)
		area -= (r[j][0] - ox) * (r[i][1] - oy)
	}
	return area / 2
}
