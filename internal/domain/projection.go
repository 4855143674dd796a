package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// WGS-84 ellipsoid and UTM constants.
const (
	wgs84SemiMajor  = 6378137.0
	wgs84Flattening = 1 / 298.257223563
	utmScale        = 0.9996
	utmFalseEasting = 500000.0
	utmFalseSouth   = 10000000.0
	utmZoneWidth    = 6.0
	utmZoneCount    = 60
)

var (
	wgs84E2  = wgs84Flattening * (2 - wgs84Flattening) // first eccentricity squared
	wgs84Ep2 = wgs84E2 / (1 - wgs84E2)                 // second eccentricity squared
)

// PlanarProjection identifies the UTM zone used to measure a roof.
type PlanarProjection struct {
	Zone  int  // 1..60
	South bool // southern hemisphere (false northing applied)
}

// SelectProjection picks the UTM zone for a longitude/latitude pair.
// The zone depends only on longitude and the hemisphere only on the sign of
// latitude.
func SelectProjection(lon, lat float64) (PlanarProjection, error) {
	if err := ValidateCoordinate(lon, lat); err != nil {
		return PlanarProjection{}, err
	}
	zone := int(math.Floor((lon+180)/utmZoneWidth)) + 1
	if zone > utmZoneCount {
		zone = utmZoneCount
	}
	return PlanarProjection{Zone: zone, South: lat < 0}, nil
}

// ValidateCoordinate checks that lon/lat are finite and within WGS-84 bounds.
func ValidateCoordinate(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, lon)
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, lat)
	}
	return nil
}

// EPSG returns the EPSG code of the WGS 84 / UTM zone (326xx north, 327xx south).
func (p PlanarProjection) EPSG() int {
	if p.South {
		return 32700 + p.Zone
	}
	return 32600 + p.Zone
}

func (p PlanarProjection) String() string {
	return fmt.Sprintf("EPSG:%d", p.EPSG())
}

// CentralMeridian returns the zone's central meridian in degrees.
func (p PlanarProjection) CentralMeridian() float64 {
	return float64(p.Zone-1)*utmZoneWidth - 180 + utmZoneWidth/2
}

// Forward projects a lon/lat point to UTM easting/northing in meters using the
// transverse Mercator series expansion (Snyder, USGS PP 1395, eqs. 8-9..8-10).
func (p PlanarProjection) Forward(pt orb.Point) orb.Point {
	phi := pt.Lat() * math.Pi / 180
	dLambda := (pt.Lon() - p.CentralMeridian()) * math.Pi / 180

	sinPhi, cosPhi := math.Sincos(phi)
	tanPhi := sinPhi / cosPhi

	n := wgs84SemiMajor / math.Sqrt(1-wgs84E2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := wgs84Ep2 * cosPhi * cosPhi
	a := cosPhi * dLambda
	m := meridianArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x := utmScale*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*wgs84Ep2)*a5/120) + utmFalseEasting
	y := utmScale * (m + n*tanPhi*(a2/2+(5-t+9*c+4*c*c)*a4/24+(61-58*t+t*t+600*c-330*wgs84Ep2)*a6/720))
	if p.South {
		y += utmFalseSouth
	}
	return orb.Point{x, y}
}

// meridianArc is the distance along the meridian from the equator to latitude phi.
func meridianArc(phi float64) float64 {
	e2 := wgs84E2
	e4 := e2 * e2
	e6 := e4 * e2
	return wgs84SemiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}
