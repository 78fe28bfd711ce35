// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/photo-ingest/internal/bus"
	"github.com/tendant/photo-ingest/internal/img"
	"github.com/tendant/photo-ingest/internal/ingest"
	"github.com/tendant/photo-ingest/internal/source"
	"github.com/tendant/photo-ingest/internal/store"
	"github.com/tendant/photo-ingest/pkg/schema"
)

// handlerSlack covers routing, aggregation and publishing time beyond the
// batch deadline itself.
const handlerSlack = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		fatal(logger, "load config", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("worker starting",
		"nats_url", cfg.NATSURL,
		"request_subject", cfg.RequestSubject,
		"result_subject", cfg.ResultSubject,
		"error_subject", cfg.ErrorSubject,
		"queue", cfg.WorkerQueue,
		"concurrency", cfg.Concurrency,
		"item_timeout", cfg.itemTimeout(),
		"batch_timeout", cfg.batchTimeout())

	ctx := context.Background()

	s3store, err := store.NewS3Store(ctx, store.Config{
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
	if err != nil {
		fatal(logger, "build s3 store", err)
	}
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := s3store.CheckBucket(probeCtx); err != nil {
		logger.Warn("s3 bucket is not accessible", "bucket", cfg.S3Bucket, "err", err)
	} else {
		logger.Info("s3 bucket is accessible", "bucket", cfg.S3Bucket)
	}
	cancel()

	fetcher := source.NewTelegram(cfg.TelegramAPIURL, cfg.TelegramBotToken, &http.Client{})
	validator := img.NewValidator(img.Policy{
		MinSize:      cfg.MinFileSizeBytes,
		MaxSize:      cfg.maxFileSizeBytes(),
		MinDimension: cfg.MinImageDimension,
	})
	processor := &ingest.Processor{
		Fetcher:     fetcher,
		Validator:   validator,
		Uploader:    s3store,
		ItemTimeout: cfg.itemTimeout(),
	}
	orchestrator := ingest.NewOrchestrator(processor, cfg.batchTimeout(), logger)
	router := &ingest.Router{Concurrency: cfg.Concurrency, MaxBatchSize: cfg.MaxBatchSize}

	nc, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
	}
	defer nc.Close()
	logger.Info("connected to NATS", "nats_url", cfg.NATSURL)

	worker := &uploadWorker{
		cfg:          cfg,
		router:       router,
		orchestrator: orchestrator,
		nc:           nc,
		logger:       logger,
	}

	_, err = nc.QueueSubscribeJSON(cfg.RequestSubject, cfg.WorkerQueue, cfg.batchTimeout()+handlerSlack, worker.handle)
	if err != nil {
		fatal(logger, "subscribe worker", err, "request_subject", cfg.RequestSubject, "queue", cfg.WorkerQueue)
	}
	logger.Info("listening for upload requests", "subject", cfg.RequestSubject, "queue", cfg.WorkerQueue)

	select {}
}

// publisher is the outward boundary the worker publishes payloads through.
type publisher interface {
	PublishJSON(subject string, v any) error
}

type uploadWorker struct {
	cfg          config
	router       *ingest.Router
	orchestrator *ingest.Orchestrator
	nc           publisher
	logger       *slog.Logger
}

// handle processes one inbound request and publishes exactly one outward
// payload: a result on the result subject, or an error on the error subject
// when the request never reached the pipeline. A panic anywhere in the
// pipeline is converted into an internal-error payload so the caller never
// receives silence.
func (w *uploadWorker) handle(ctx context.Context, data []byte) {
	var req schema.PhotoUploadRequest
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing upload request", "panic", r)
			w.publishError(&req, ingest.CodeInternal, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := json.Unmarshal(data, &req); err != nil {
		w.logger.Error("malformed upload request", "err", err)
		w.publishError(&req, ingest.CodeInternal, "malformed request payload: "+err.Error())
		return
	}

	reqLogger := w.logger.With("batch_id", req.BatchID, "bot_id", req.BotID, "user_id", req.UserID, "avatar_id", req.AvatarID)
	reqLogger.Info("received upload request", "header", req.Header, "photos", len(req.Photos))

	descriptors, bctx, concurrency, err := w.router.Route(&req)
	if err != nil {
		code := ingest.CodeInternal
		var routingErr *ingest.RoutingError
		if errors.As(err, &routingErr) {
			code = routingErr.Code
		}
		reqLogger.Warn("request rejected", "code", code, "err", err)
		w.publishError(&req, code, err.Error())
		return
	}

	result := w.orchestrator.Run(ctx, bctx, descriptors, concurrency)
	payload := ingest.ResultPayload(&req, result)

	if err := w.nc.PublishJSON(w.cfg.ResultSubject, payload); err != nil {
		reqLogger.Error("publish result failed", "subject", w.cfg.ResultSubject, "err", err)
		return
	}
	reqLogger.Info("published result",
		"subject", w.cfg.ResultSubject,
		"total", payload.TotalFiles,
		"succeeded", payload.SuccessfulFiles,
		"failed", payload.FailedFiles)
}

func (w *uploadWorker) publishError(req *schema.PhotoUploadRequest, code, message string) {
	payload := ingest.ErrorPayload(req, code, message)
	if err := w.nc.PublishJSON(w.cfg.ErrorSubject, payload); err != nil {
		w.logger.Error("publish error failed", "subject", w.cfg.ErrorSubject, "err", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
