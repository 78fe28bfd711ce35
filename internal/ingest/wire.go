// internal/ingest/wire.go
package ingest

import (
	"fmt"
	"time"

	"github.com/tendant/photo-ingest/pkg/schema"
)

// ResultPayload shapes a batch result into the outbound wire payload.
func ResultPayload(req *schema.PhotoUploadRequest, result BatchResult) schema.BatchUploadResult {
	payload := schema.BatchUploadResult{
		Header:            req.Header,
		BotID:             req.BotID,
		UserID:            req.UserID,
		AvatarID:          req.AvatarID,
		BatchID:           req.BatchID,
		TotalFiles:        result.Total,
		SuccessfulFiles:   result.Succeeded,
		FailedFiles:       result.Failed,
		SuccessfulUploads: make([]schema.FileUploadResult, 0, result.Succeeded),
		FailedUploads:     make([]schema.FileUploadError, 0, result.Failed),
		ProcessingTime:    result.Elapsed.Seconds(),
		TotalSize:         result.TotalBytes,
		Message:           fmt.Sprintf("Batch processing completed: %d/%d files successful", result.Succeeded, result.Total),
		HappenedAt:        result.ProducedAt.Unix(),
	}
	for _, s := range result.Successes {
		payload.SuccessfulUploads = append(payload.SuccessfulUploads, schema.FileUploadResult{
			FileID:      s.ItemID,
			S3Key:       s.StorageKey,
			S3URL:       s.Locator,
			FileSize:    s.ByteSize,
			ContentType: s.ContentType,
			Width:       s.Width,
			Height:      s.Height,
			UploadTime:  s.Elapsed.Seconds(),
		})
	}
	for _, f := range result.Failures {
		payload.FailedUploads = append(payload.FailedUploads, schema.FileUploadError{
			FileID:       f.ItemID,
			S3Key:        f.StorageKey,
			ErrorMessage: f.Detail,
			ErrorCode:    WireCode(f.Kind, f.Reason),
		})
	}
	return payload
}

// ErrorPayload shapes a routing or internal failure into the outbound error
// payload. Per-item failures never take this path.
func ErrorPayload(req *schema.PhotoUploadRequest, code, message string) schema.UploadError {
	failed := make([]string, 0, len(req.Photos))
	for _, photo := range req.Photos {
		failed = append(failed, photo.FileID)
	}
	if req.Photo != nil {
		failed = append(failed, req.Photo.FileID)
	}
	return schema.UploadError{
		Header:      req.Header,
		BotID:       req.BotID,
		UserID:      req.UserID,
		AvatarID:    req.AvatarID,
		BatchID:     req.BatchID,
		Error:       message,
		ErrorCode:   code,
		FailedFiles: failed,
		HappenedAt:  time.Now().Unix(),
	}
}
