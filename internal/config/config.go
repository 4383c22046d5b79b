package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Trained artifacts and reference data.
	ModelPath      string
	ScalerPath     string
	EncoderPath    string
	DatasetPath    string
	GridIndexPaths []string
	GridCacheSize  int
	PreloadData    bool

	ExposeErrorTrace bool
	Region           domain.Region

	// Prediction event stream.
	EventsEnabled        bool
	KafkaBrokers         []string
	KafkaPredictionTopic string
	BatchSize            int
	BatchFlushInterval   time.Duration
	EventBufferSize      int
}

const defaultGridIndexPaths = "dataset/grid_index.geojson,dataset/grid_index.parquet,dataset/grid_index.shp"

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory (or ENV_FILE) is read first without
// overriding variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	gridCacheSize, err := parsePositiveInt("GRID_CACHE_SIZE", 4096)
	if err != nil {
		return nil, err
	}
	preload, err := parseBool("PRELOAD_DATA", false)
	if err != nil {
		return nil, err
	}
	exposeTrace, err := parseBool("EXPOSE_ERROR_TRACE", false)
	if err != nil {
		return nil, err
	}
	eventsEnabled, err := parseBool("PREDICTION_EVENTS_ENABLED", false)
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	bufferSize, err := parsePositiveInt("EVENT_BUFFER_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	var region domain.Region
	if path := os.Getenv("REGION_FILE"); path != "" {
		region, err = LoadRegion(path)
	} else {
		region, err = DefaultRegion()
	}
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:      sharedcfg.EnvOrDefault("MODEL_PATH", "model/flood_model.json"),
		ScalerPath:     sharedcfg.EnvOrDefault("SCALER_PATH", "scaler/scaler.json"),
		EncoderPath:    sharedcfg.EnvOrDefault("ENCODER_PATH", "encoder/label_encoder.json"),
		DatasetPath:    sharedcfg.EnvOrDefault("DATASET_PATH", "dataset/delhi_flood_dataset_demo.parquet"),
		GridIndexPaths: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("GRID_INDEX_PATHS", defaultGridIndexPaths)),
		GridCacheSize:  gridCacheSize,
		PreloadData:    preload,

		ExposeErrorTrace: exposeTrace,
		Region:           region,

		EventsEnabled:        eventsEnabled,
		KafkaBrokers:         sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "flood-predictions"),
		BatchSize:            batchSize,
		BatchFlushInterval:   flushInterval,
		EventBufferSize:      bufferSize,
	}

	if len(cfg.GridIndexPaths) == 0 {
		return nil, errors.New("GRID_INDEX_PATHS is required")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when PREDICTION_EVENTS_ENABLED is true")
	}
	if cfg.EventsEnabled && cfg.KafkaPredictionTopic == "" {
		return nil, errors.New("KAFKA_PREDICTION_TOPIC is required when PREDICTION_EVENTS_ENABLED is true")
	}

	return cfg, nil
}
