package domain

import "errors"

var (
	// ErrInvalidCoordinate reports a malformed or out-of-range longitude/latitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrDegeneratePolygon reports a roof outline with fewer than 3 distinct vertices.
	ErrDegeneratePolygon = errors.New("degenerate polygon")

	// ErrInvalidParameters reports sizing or orientation inputs outside their allowed range.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrUpstreamUnavailable reports a failed, unreachable, or undecodable data provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// IsClientError reports whether err was caused by caller input rather than an
// upstream or internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrDegeneratePolygon) ||
		errors.Is(err, ErrInvalidParameters)
}
