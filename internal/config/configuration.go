package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort     int   `mapstructure:"WEBSERVER_PORT"`
	UploadFileLimitMB int64 `mapstructure:"UPLOAD_FILE_LIMIT_MB" validate:"gte=1"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Storage Configuration
	StorageDir string `mapstructure:"STORAGE_DIR" validate:"required"`
	TempDir    string `mapstructure:"TEMP_DIR" validate:"required"`

	// Processing Configuration
	ProcessingConcurrency int    `mapstructure:"PROCESSING_CONCURRENCY" validate:"min=1"`
	FFmpegPath            string `mapstructure:"FFMPEG_PATH" validate:"required"`
	FFprobePath           string `mapstructure:"FFPROBE_PATH" validate:"required"`

	// Torrent Configuration
	TorrentMaxBytes     int64         `mapstructure:"TORRENT_MAX_BYTES" validate:"gte=1"`
	TorrentListenPort   int           `mapstructure:"TORRENT_LISTEN_PORT" validate:"gte=0,lte=65535"`
	TorrentStallTimeout time.Duration `mapstructure:"TORRENT_STALL_TIMEOUT" validate:"gt=0"`

	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Paths are the directories the ingestion pipeline works in. Uploads and
// Downloads are never under Storage.
type Paths struct {
	Storage   string
	Uploads   string
	Downloads string
}

// Paths derives the working directories from the configuration.
func (c *Config) Paths() Paths {
	return Paths{
		Storage:   filepath.Clean(c.StorageDir),
		Uploads:   filepath.Join(c.TempDir, "uploads"),
		Downloads: filepath.Join(c.TempDir, "downloads"),
	}
}

// ErrKeyEscapesRoot is returned by Resolve for keys that leave the storage root.
var ErrKeyEscapesRoot = errors.New("storage key escapes storage root")

// Resolve turns a relative storage key into a path under Storage.
func (p Paths) Resolve(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrKeyEscapesRoot, key)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrKeyEscapesRoot, key)
	}
	return filepath.Join(p.Storage, clean), nil
}

// UploadLimitBytes is the request body limit for uploads.
func (c *Config) UploadLimitBytes() int64 {
	return c.UploadFileLimitMB << 20
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			viper.BindEnv(tag)
		}
	}
	slog.Debug("Environment variables bound", "fields", typ.NumField())
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("UPLOAD_FILE_LIMIT_MB", 16384)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("STORAGE_DIR", "storage")
	viper.SetDefault("TEMP_DIR", "temp")
	viper.SetDefault("PROCESSING_CONCURRENCY", 1)
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("FFPROBE_PATH", "ffprobe")
	viper.SetDefault("TORRENT_MAX_BYTES", 2<<20)
	viper.SetDefault("TORRENT_LISTEN_PORT", 42069)
	viper.SetDefault("TORRENT_STALL_TIMEOUT", 10*time.Minute)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration",
		"webserver_port", cfg.WebServerPort,
		"storage_dir", cfg.StorageDir,
		"temp_dir", cfg.TempDir,
		"processing_concurrency", cfg.ProcessingConcurrency,
		"torrent_listen_port", cfg.TorrentListenPort,
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
