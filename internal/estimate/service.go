package estimate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	"github.com/couchcryptid/solar-estimate-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// ClimatologyProvider fetches monthly irradiance climatology for a location.
type ClimatologyProvider interface {
	Climatology(ctx context.Context, loc domain.GeoPoint) (domain.ClimatologyData, error)
}

// PVProvider simulates monthly energy output for a PV array.
type PVProvider interface {
	PVCalc(ctx context.Context, q domain.PVQuery) (domain.PVOutput, error)
}

// EventPublisher announces completed estimates.
type EventPublisher interface {
	Publish(ctx context.Context, est domain.Estimate) error
}

// Options tune the composer. The zero value is usable but has no default
// orientation; use DefaultOptions as a starting point.
type Options struct {
	// Defaults is the orientation used when a request omits tilt or azimuth.
	Defaults domain.Orientation
	// Parallel fetches both providers concurrently.
	Parallel bool
	// Publisher is optional; nil disables estimate events.
	Publisher EventPublisher
	// Clock stamps and times estimates; nil uses the real clock.
	Clock clockwork.Clock
}

// DefaultOptions returns the built-in orientation defaults with parallel fetching.
func DefaultOptions() Options {
	return Options{
		Defaults: domain.Orientation{TiltDeg: domain.DefaultTiltDeg, AzimuthDeg: domain.DefaultAzimuthDeg},
		Parallel: true,
	}
}

// Service composes roof measurement, array sizing, and provider data into a
// single estimate. It holds no per-request state and is safe for concurrent use.
type Service struct {
	climatology ClimatologyProvider
	pv          PVProvider
	opts        Options
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	draining    atomic.Bool
}

// NewService creates an estimate Service.
func NewService(climatology ClimatologyProvider, pv PVProvider, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		climatology: climatology,
		pv:          pv,
		opts:        opts,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns an error once the service has started draining.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.draining.Load() {
		return errors.New("service is shutting down")
	}
	return nil
}

// Drain marks the service as not ready so load balancers stop routing to it.
func (s *Service) Drain() {
	s.draining.Store(true)
}

// plan is a request after validation and defaulting, before any network call.
type plan struct {
	location    domain.GeoPoint
	orientation domain.Orientation
	params      domain.SizingParameters
	userKW      *float64
	roof        *domain.RoofPolygon
}

// Estimate validates the request, sizes the array, queries both providers, and
// assembles the result. Input errors are returned before any provider call;
// a provider failure aborts the whole estimate.
func (s *Service) Estimate(ctx context.Context, req domain.EstimateRequest) (domain.Estimate, error) {
	start := s.clock.Now()
	est, err := s.estimate(ctx, req)
	s.metrics.EstimateDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.Estimates.WithLabelValues(outcome(err)).Inc()
	return est, err
}

func (s *Service) estimate(ctx context.Context, req domain.EstimateRequest) (domain.Estimate, error) {
	p, err := s.plan(req)
	if err != nil {
		return domain.Estimate{}, err
	}

	est := domain.Estimate{
		ID:          uuid.NewString(),
		Location:    p.location,
		PanelWatts:  p.params.PanelWatts,
		DataSources: []string{domain.DataSourceClimatology, domain.DataSourcePV},
		Assumptions: domain.Assumptions{
			PanelAreaM2:   p.params.PanelAreaM2,
			PackingRatio:  p.params.PackingRatio,
			TiltDeg:       p.orientation.TiltDeg,
			AzimuthDeg:    p.orientation.AzimuthDeg,
			LossesPercent: p.params.LossesPercent,
		},
	}

	var area *float64
	if p.roof != nil {
		a, proj, err := measure(*p.roof)
		if err != nil {
			return domain.Estimate{}, err
		}
		// A zero-area outline (collinear vertices) sizes as an unknown roof.
		if a > 0 {
			area = &a
		}
		est.Projection = &proj
		est.Segments = []domain.RoofSegment{{ID: "seg_0", AreaM2: a, Orientation: p.orientation}}
		s.metrics.RoofArea.Observe(a)
	}

	est.Sizing = domain.Size(area, p.params, p.userKW)
	s.metrics.SystemCapacity.Observe(est.Sizing.SystemKW)

	query := domain.PVQuery{
		Location:      p.location,
		TiltDeg:       p.orientation.TiltDeg,
		AspectDeg:     p.orientation.Aspect(),
		PeakPowerKW:   est.Sizing.SystemKW,
		LossesPercent: p.params.LossesPercent,
	}
	clim, pv, err := s.fetch(ctx, p.location, query)
	if err != nil {
		s.logger.Error("provider fetch failed",
			"estimate_id", est.ID,
			"lat", p.location.Lat,
			"lon", p.location.Lon,
			"error", err,
		)
		return domain.Estimate{}, err
	}

	est.Irradiance = annualize(clim)
	est.Yield = domain.ReconcileMonthlyEnergy(pv.Monthly, pv.Annual)
	est.GeneratedAt = s.clock.Now().UTC()

	s.publish(ctx, est)

	s.logger.Info("estimate complete",
		"estimate_id", est.ID,
		"system_kw", est.Sizing.SystemKW,
		"recommended_panels", est.Sizing.RecommendedPanels,
		"annual_kwh", est.Yield.AnnualKWh,
	)
	return est, nil
}

// plan validates and defaults every input so that no provider is called for a
// request that would be rejected.
func (s *Service) plan(req domain.EstimateRequest) (plan, error) {
	if err := domain.ValidateCoordinate(req.Location.Lon, req.Location.Lat); err != nil {
		return plan{}, err
	}

	orientation := s.opts.Defaults
	if req.TiltDeg != nil {
		orientation.TiltDeg = *req.TiltDeg
	}
	if req.AzimuthDeg != nil {
		orientation.AzimuthDeg = *req.AzimuthDeg
	}
	if err := orientation.Validate(); err != nil {
		return plan{}, err
	}

	params := req.SizingParameters()
	if err := params.Validate(); err != nil {
		return plan{}, err
	}

	if req.SystemKW != nil {
		if err := domain.ValidateSystemKW(*req.SystemKW); err != nil {
			return plan{}, err
		}
	}

	p := plan{
		location:    req.Location,
		orientation: orientation,
		params:      params,
		userKW:      req.SystemKW,
	}
	if req.Polygon != nil {
		roof, err := domain.NewRoofPolygon(req.Polygon)
		if err != nil {
			return plan{}, fmt.Errorf("polygon: %w", err)
		}
		if n := roof.DistinctVertices(); n < 3 {
			return plan{}, fmt.Errorf("%w: %d distinct vertices, need at least 3", domain.ErrDegeneratePolygon, n)
		}
		p.roof = &roof
	}
	return p, nil
}

func measure(roof domain.RoofPolygon) (float64, domain.PlanarProjection, error) {
	area, err := domain.Area(roof)
	if err != nil {
		return 0, domain.PlanarProjection{}, fmt.Errorf("roof area: %w", err)
	}
	proj, err := roof.Projection()
	if err != nil {
		return 0, domain.PlanarProjection{}, fmt.Errorf("roof projection: %w", err)
	}
	return area, proj, nil
}

// fetch calls both providers. In parallel mode the first failure cancels the
// other call.
func (s *Service) fetch(ctx context.Context, loc domain.GeoPoint, q domain.PVQuery) (domain.ClimatologyData, domain.PVOutput, error) {
	var (
		clim domain.ClimatologyData
		pv   domain.PVOutput
	)
	fetchClimatology := func(ctx context.Context) error {
		var err error
		clim, err = s.climatology.Climatology(ctx, loc)
		if err != nil {
			return fmt.Errorf("%w: climatology: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	}
	fetchPV := func(ctx context.Context) error {
		var err error
		pv, err = s.pv.PVCalc(ctx, q)
		if err != nil {
			return fmt.Errorf("%w: pv simulation: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	}

	if !s.opts.Parallel {
		if err := fetchClimatology(ctx); err != nil {
			return clim, pv, err
		}
		return clim, pv, fetchPV(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fetchClimatology(gctx) })
	g.Go(func() error { return fetchPV(gctx) })
	return clim, pv, g.Wait()
}

func (s *Service) publish(ctx context.Context, est domain.Estimate) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.Publish(ctx, est); err != nil {
		s.logger.Warn("publish estimate event failed", "estimate_id", est.ID, "error", err)
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func annualize(clim domain.ClimatologyData) domain.IrradianceStats {
	channel := func(monthly map[string]any) *float64 {
		if total, ok := domain.AnnualizeClimatology(monthly); ok {
			return &total
		}
		return nil
	}
	return domain.IrradianceStats{
		GHI: channel(clim.GHI),
		DNI: channel(clim.DNI),
		DHI: channel(clim.DHI),
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsClientError(err):
		return "client_error"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream_error"
	default:
		return "error"
	}
}
