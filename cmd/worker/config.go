// cmd/worker/config.go
package main

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type config struct {
	NATSURL        string `env:"NATS_URL" env-default:"nats://127.0.0.1:4222"`
	RequestSubject string `env:"PHOTO_UPLOAD_SUBJECT" env-default:"photo_upload"`
	ResultSubject  string `env:"PHOTO_UPLOAD_RESULT_SUBJECT" env-default:"photo_upload_result"`
	ErrorSubject   string `env:"PHOTO_UPLOAD_ERROR_SUBJECT" env-default:"photo_upload_error"`
	WorkerQueue    string `env:"PHOTO_UPLOAD_QUEUE" env-default:"photo-ingest-workers"`

	TelegramAPIURL   string `env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET_NAME"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT_URL"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`

	Concurrency         int   `env:"MAX_CONCURRENT_DOWNLOADS" env-default:"5"`
	MaxBatchSize        int   `env:"MAX_BATCH_SIZE" env-default:"100"`
	ItemTimeoutSeconds  int   `env:"DOWNLOAD_TIMEOUT_SECONDS" env-default:"30"`
	BatchTimeoutSeconds int   `env:"BATCH_TIMEOUT_SECONDS" env-default:"300"`
	MinFileSizeBytes    int64 `env:"MIN_FILE_SIZE_BYTES" env-default:"1024"`
	MaxFileSizeMB       int64 `env:"MAX_FILE_SIZE_MB" env-default:"10"`
	MinImageDimension   int   `env:"MIN_IMAGE_DIMENSION" env-default:"0"`

	LogLevel string `env:"LOG_LEVEL" env-default:"INFO"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return config{}, fmt.Errorf("read environment: %w", err)
	}

	if cfg.TelegramBotToken == "" {
		return config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.S3Bucket == "" {
		return config{}, fmt.Errorf("S3_BUCKET_NAME is required")
	}
	if cfg.Concurrency <= 0 {
		return config{}, fmt.Errorf("MAX_CONCURRENT_DOWNLOADS must be greater than zero (got %d)", cfg.Concurrency)
	}
	if cfg.ItemTimeoutSeconds <= 0 {
		return config{}, fmt.Errorf("DOWNLOAD_TIMEOUT_SECONDS must be greater than zero (got %d)", cfg.ItemTimeoutSeconds)
	}
	if cfg.BatchTimeoutSeconds <= 0 {
		return config{}, fmt.Errorf("BATCH_TIMEOUT_SECONDS must be greater than zero (got %d)", cfg.BatchTimeoutSeconds)
	}
	if cfg.MaxFileSizeMB <= 0 {
		return config{}, fmt.Errorf("MAX_FILE_SIZE_MB must be greater than zero (got %d)", cfg.MaxFileSizeMB)
	}

	return cfg, nil
}

func (c config) itemTimeout() time.Duration  { return time.Duration(c.ItemTimeoutSeconds) * time.Second }
func (c config) batchTimeout() time.Duration { return time.Duration(c.BatchTimeoutSeconds) * time.Second }
func (c config) maxFileSizeBytes() int64     { return c.MaxFileSizeMB * 1024 * 1024 }
