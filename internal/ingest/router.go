// internal/ingest/router.go
package ingest

import (
	"fmt"
	"strconv"

	"github.com/tendant/photo-ingest/pkg/schema"
)

// Router classifies an inbound request as a training batch or a single
// inference photo and validates its structure before any item processing
// starts. Structural rejections surface as *RoutingError.
type Router struct {
	Concurrency  int
	MaxBatchSize int
}

// Route builds the descriptor list and batch context for a request. Single
// mode forces a concurrency of one; batch mode uses the configured limit.
func (r *Router) Route(req *schema.PhotoUploadRequest) ([]Descriptor, BatchContext, int, error) {
	bctx := BatchContext{
		BatchID:  req.BatchID,
		Priority: req.Priority,
	}

	switch req.Header {
	case schema.ModeTrain:
		bctx.Mode = ModeBatch
	case schema.ModeInf:
		bctx.Mode = ModeSingle
	default:
		return nil, bctx, 0, &RoutingError{
			Code:    CodeUnsupportedMode,
			Message: fmt.Sprintf("unsupported header %q, expected %q or %q", req.Header, schema.ModeTrain, schema.ModeInf),
		}
	}

	if req.BotID <= 0 || req.UserID <= 0 || req.AvatarID <= 0 {
		return nil, bctx, 0, &RoutingError{
			Code:    CodeMissingIdentifiers,
			Message: fmt.Sprintf("bot_id, user_id and avatar_id are required (got %d, %d, %d)", req.BotID, req.UserID, req.AvatarID),
		}
	}
	bctx.OwnerID = strconv.FormatInt(req.BotID, 10)
	bctx.SubjectID = strconv.FormatInt(req.UserID, 10)
	bctx.CollectionID = strconv.FormatInt(req.AvatarID, 10)

	photos := req.Photos
	concurrency := r.Concurrency
	if bctx.Mode == ModeSingle {
		if req.Photo == nil {
			return nil, bctx, 0, &RoutingError{Code: CodeEmptyBatch, Message: "inference request carries no photo"}
		}
		photos = []schema.PhotoFile{*req.Photo}
		concurrency = 1
	}

	if len(photos) == 0 {
		return nil, bctx, 0, &RoutingError{Code: CodeEmptyBatch, Message: "batch cannot be empty"}
	}
	if r.MaxBatchSize > 0 && len(photos) > r.MaxBatchSize {
		return nil, bctx, 0, &RoutingError{
			Code:    CodeBatchTooLarge,
			Message: fmt.Sprintf("batch size %d exceeds maximum of %d", len(photos), r.MaxBatchSize),
		}
	}

	descriptors := make([]Descriptor, len(photos))
	for i, photo := range photos {
		descriptors[i] = Descriptor{
			ItemID:         photo.FileID,
			RequestedKey:   photo.S3Key,
			DeclaredSize:   photo.FileSize,
			DeclaredWidth:  photo.Width,
			DeclaredHeight: photo.Height,
		}
	}
	return descriptors, bctx, concurrency, nil
}
