package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	MarkersSource  string
	LinkBaseURL    string
	FetchTimeout   time.Duration
	ReloadInterval time.Duration

	StylesPath        string
	IconStyle         string
	ClusteringEnabled bool
	ClusterRadius     int

	HTTPAddr           string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Optional sinks. Empty values disable them.
	KafkaBrokers    []string
	KafkaLayerTopic string
	SnapshotPath    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	reloadInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RELOAD_INTERVAL", "0s"))
	if err != nil || reloadInterval < 0 {
		return nil, errors.New("invalid RELOAD_INTERVAL")
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	clusteringEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("CLUSTERING_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid CLUSTERING_ENABLED")
	}

	clusterRadius, err := strconv.Atoi(sharedcfg.EnvOrDefault("CLUSTER_RADIUS", "120"))
	if err != nil || clusterRadius <= 0 {
		return nil, errors.New("invalid CLUSTER_RADIUS: must be a positive integer")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		MarkersSource:  sharedcfg.EnvOrDefault("MARKERS_SOURCE", "resources/markers.xml"),
		LinkBaseURL:    os.Getenv("LINK_BASE_URL"),
		FetchTimeout:   fetchTimeout,
		ReloadInterval: reloadInterval,

		StylesPath:        os.Getenv("STYLES_PATH"),
		IconStyle:         strings.ToLower(sharedcfg.EnvOrDefault("ICON_STYLE", "divicon")),
		ClusteringEnabled: clusteringEnabled,
		ClusterRadius:     clusterRadius,

		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaLayerTopic: sharedcfg.EnvOrDefault("KAFKA_LAYER_TOPIC", "map-layers"),
		SnapshotPath:    os.Getenv("SNAPSHOT_PATH"),
	}

	if cfg.MarkersSource == "" {
		return nil, errors.New("MARKERS_SOURCE is required")
	}
	if cfg.IconStyle != "divicon" && cfg.IconStyle != "pin" {
		return nil, fmt.Errorf("invalid ICON_STYLE %q: must be divicon or pin", cfg.IconStyle)
	}
	if cfg.KafkaEnabled() && cfg.KafkaLayerTopic == "" {
		return nil, errors.New("KAFKA_LAYER_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether layer publication is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
