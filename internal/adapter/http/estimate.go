package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

const maxRequestBytes = 1 << 20

// estimateRequest is the wire form of POST /solar/estimate. Optional fields
// are pointers so an explicit zero is distinguishable from an omitted field.
type estimateRequest struct {
	Lat           *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon           *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Polygon       *polygon `json:"polygon"`
	TiltDeg       *float64 `json:"tilt_deg" validate:"omitempty,gte=0,lte=90"`
	AzimuthDeg    *float64 `json:"azimuth_deg" validate:"omitempty,gte=0,lte=360"`
	SystemKW      *float64 `json:"system_kw" validate:"omitempty,gt=0,lte=100000"`
	PanelWatts    *int     `json:"panel_watts" validate:"omitempty,gt=0"`
	PanelAreaM2   *float64 `json:"panel_area_m2" validate:"omitempty,gt=0"`
	PackingRatio  *float64 `json:"packing_ratio" validate:"omitempty,gt=0,lte=1"`
	LossesPercent *float64 `json:"losses_percent" validate:"omitempty,gte=0,lte=40"`
}

// polygon is a GeoJSON Polygon. Only the outer ring is measured; vertex
// ranges are checked by the domain.
type polygon struct {
	Type        string        `json:"type" validate:"eq=Polygon"`
	Coordinates [][][]float64 `json:"coordinates" validate:"required,min=1"`
}

func (r estimateRequest) toDomain() domain.EstimateRequest {
	req := domain.EstimateRequest{
		Location:      domain.GeoPoint{Lon: *r.Lon, Lat: *r.Lat},
		TiltDeg:       r.TiltDeg,
		AzimuthDeg:    r.AzimuthDeg,
		SystemKW:      r.SystemKW,
		PanelWatts:    r.PanelWatts,
		PanelAreaM2:   r.PanelAreaM2,
		PackingRatio:  r.PackingRatio,
		LossesPercent: r.LossesPercent,
	}
	if r.Polygon != nil {
		req.Polygon = r.Polygon.Coordinates[0]
		if req.Polygon == nil {
			req.Polygon = [][]float64{}
		}
	}
	return req
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body estimateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, validationError(err))
		return
	}

	est, err := s.estimator.Estimate(r.Context(), body.toDomain())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, newEstimateResponse(est))
}

// statusFor maps an estimate error to its HTTP status.
func statusFor(err error) int {
	switch {
	case domain.IsClientError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		s.logger.Error("estimate failed", "status", status, "error", err)
	case status < http.StatusInternalServerError:
		s.logger.Info("estimate rejected", "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// validationError flattens validator failures into one readable error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "eq":
			msgs = append(msgs, fmt.Sprintf("%s must be %q", fe.Field(), fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must have at least %s element(s)", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidParameters, strings.Join(msgs, "; "))
}
