// Package domain holds the rooftop solar sizing and yield core: projection
// selection, roof area measurement, array sizing, and normalization of the
// irradiance and energy series returned by the upstream data providers.
// Everything in this package is pure and request-scoped.
//
// # Coordinates
//
// Geographic coordinates are WGS-84 longitude/latitude in degrees, always in
// lon,lat order (GeoJSON order) when carried as an [orb.Point]:
//
//	longitude ∈ [-180, 180]
//	latitude  ∈ [-90, 90]
//
// Roof areas are measured in a Universal Transverse Mercator zone selected
// from the polygon centroid:
//
//	zone = floor((lon + 180) / 6) + 1   (1..60; lon = 180 folds into zone 60)
//	hemisphere = south iff lat < 0      (false northing of 10,000 km)
//
// The same zone is used for every vertex of a polygon. Roofs near a zone edge
// pick up a small scale distortion (under 1% inside a zone), which is accepted.
//
// # Orientation
//
// Azimuth is compass-referenced: 0 = north, 90 = east, 180 = south,
// 270 = west. The PV simulation provider expects an "aspect" referenced to
// south, and the conversion is fixed as:
//
//	aspect = 180 - azimuth
//
// A south-facing array (azimuth 180) is aspect 0 and a north-facing one is
// aspect 180.
//
// # Units
//
// Climatology channels (GHI, DNI, DHI) arrive as monthly daily means in
// kWh/m²/day and are annualized to kWh/m²/yr using a non-leap calendar.
// PV energy arrives as monthly kWh for the whole array. Capacity is kW (DC,
// rated at STC).
//
// # Upstream data
//
// Provider payloads are decoded into untyped JSON values and handed to the
// normalization routines here. Anything that is not a finite number is treated
// as absent, so a malformed field degrades to "no contribution" instead of
// failing the request.
package domain
