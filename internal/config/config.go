package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/solar-estimate-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Climatology provider (NASA POWER).
	PowerBaseURL string
	PowerTimeout time.Duration

	// PV simulation provider (PVGIS).
	PVGISBaseURL string
	PVGISTimeout time.Duration

	// Orientation applied when a request omits tilt or azimuth.
	DefaultTiltDeg    float64
	DefaultAzimuthDeg float64

	// ParallelFetch queries both providers concurrently.
	ParallelFetch bool

	// Estimate event publishing (optional).
	KafkaBrokers       []string
	KafkaEstimateTopic string
	EventsEnabled      bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	powerTimeout, err := parsePositiveDuration("POWER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pvgisTimeout, err := parsePositiveDuration("PVGIS_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	tilt, err := parseFloatInRange("DEFAULT_TILT_DEG", domain.DefaultTiltDeg, 0, 90)
	if err != nil {
		return nil, err
	}
	azimuth, err := parseFloatInRange("DEFAULT_AZIMUTH_DEG", domain.DefaultAzimuthDeg, 0, 360)
	if err != nil {
		return nil, err
	}

	brokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	eventsEnabled := len(brokers) > 0
	if v := os.Getenv("ESTIMATE_EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PowerBaseURL: sharedcfg.EnvOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/climatology/point"),
		PowerTimeout: powerTimeout,
		PVGISBaseURL: sharedcfg.EnvOrDefault("PVGIS_BASE_URL", "https://re.jrc.ec.europa.eu/api/v5_2/PVcalc"),
		PVGISTimeout: pvgisTimeout,

		DefaultTiltDeg:    tilt,
		DefaultAzimuthDeg: azimuth,
		ParallelFetch:     sharedcfg.EnvOrDefault("PARALLEL_FETCH", "true") == "true",

		KafkaBrokers:       brokers,
		KafkaEstimateTopic: sharedcfg.EnvOrDefault("KAFKA_ESTIMATE_TOPIC", "solar-estimates"),
		EventsEnabled:      eventsEnabled,
	}

	if cfg.PowerBaseURL == "" {
		return nil, errors.New("POWER_BASE_URL is required")
	}
	if cfg.PVGISBaseURL == "" {
		return nil, errors.New("PVGIS_BASE_URL is required")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ESTIMATE_EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.EventsEnabled && cfg.KafkaEstimateTopic == "" {
		return nil, errors.New("KAFKA_ESTIMATE_TOPIC is required when estimate events are enabled")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloatInRange(key string, fallback, lo, hi float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s: must be a number in [%g, %g]", key, lo, hi)
	}
	return v, nil
}
