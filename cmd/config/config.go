package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/storage"
)

// Config holds all configuration for the server and the CLI
type Config struct {
	// Server configuration
	Port int `envconfig:"PORT" default:"10001"`

	// Capture configuration
	FrameRate         int    `envconfig:"FRAME_RATE" default:"10"`
	DisplayNum        int    `envconfig:"DISPLAY_NUM" default:"1"`
	MicDevice         string `envconfig:"MIC_DEVICE" default:"default"`
	SystemAudioDevice string `envconfig:"SYSTEM_AUDIO_DEVICE" default:"@DEFAULT_MONITOR@"`
	X11SocketDir      string `envconfig:"X11_SOCKET_DIR" default:"/tmp/.X11-unix"`
	InhibitIdle       bool   `envconfig:"INHIBIT_IDLE" default:"true"`

	// Recording configuration
	Container     string `envconfig:"CONTAINER" default:"webm"`
	MaxSizeInMB   int    `envconfig:"MAX_SIZE_MB" default:"500"`
	ChunkSizeInKB int    `envconfig:"CHUNK_SIZE_KB" default:"64"`
	// Where finished recordings are written. Empty keeps them in memory for download only.
	OutputDir string `envconfig:"OUTPUT_DIR" default:""`

	// Absolute or relative path to the ffmpeg binary. If empty the code falls back to "ffmpeg" on $PATH.
	PathToFFmpeg string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`

	// Optional upload of finished recordings to S3 compatible storage
	S3Endpoint        string `envconfig:"S3_ENDPOINT"`
	S3Bucket          string `envconfig:"S3_BUCKET"`
	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix          string `envconfig:"S3_PREFIX" default:"recordings/"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// RecorderParams are the recording defaults every session starts from.
func (c *Config) RecorderParams() recorder.Params {
	// validated by Load
	container, _ := recorder.ParseContainer(c.Container)
	return recorder.Params{
		Container:     &container,
		MaxSizeInMB:   &c.MaxSizeInMB,
		ChunkSizeInKB: &c.ChunkSizeInKB,
	}
}

// S3 returns the upload configuration, or nil when uploads are disabled.
func (c *Config) S3() *storage.S3Config {
	if c.S3Bucket == "" {
		return nil
	}
	return &storage.S3Config{
		Endpoint:        c.S3Endpoint,
		Bucket:          c.S3Bucket,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		Region:          c.S3Region,
		Prefix:          c.S3Prefix,
	}
}

func validate(config *Config) error {
	if config.DisplayNum < 0 {
		return fmt.Errorf("DISPLAY_NUM must be greater than 0")
	}
	if config.FrameRate <= 0 || config.FrameRate > 120 {
		return fmt.Errorf("FRAME_RATE must be between 1 and 120")
	}
	if config.MaxSizeInMB <= 0 || config.MaxSizeInMB > 10000 {
		return fmt.Errorf("MAX_SIZE_MB must be between 1 and 10000")
	}
	if config.ChunkSizeInKB <= 0 {
		return fmt.Errorf("CHUNK_SIZE_KB must be greater than 0")
	}
	if _, err := recorder.ParseContainer(config.Container); err != nil {
		return fmt.Errorf("CONTAINER: %w", err)
	}
	if config.PathToFFmpeg == "" {
		return fmt.Errorf("FFMPEG_PATH is required")
	}
	if config.X11SocketDir == "" {
		return fmt.Errorf("X11_SOCKET_DIR is required")
	}
	if s3 := config.S3(); s3 != nil {
		if err := s3.Validate(); err != nil {
			return fmt.Errorf("S3 configuration: %w", err)
		}
	}

	return nil
}
