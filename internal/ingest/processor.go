// internal/ingest/processor.go
package ingest

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Stage is the position of an item inside its processing state machine.
// Transitions are strictly sequential; the first failing stage moves the
// item directly to StageFailed with its error kind attached.
type Stage string

const (
	StagePending     Stage = "pending"
	StageResolving   Stage = "resolving"
	StageDownloading Stage = "downloading"
	StageValidating  Stage = "validating"
	StageKeyAssign   Stage = "key_assigning"
	StageUploading   Stage = "uploading"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// Fetched is the result of resolving and downloading one item.
type Fetched struct {
	Bytes       []byte
	ContentType string
}

// Fetcher resolves an item id to bytes from the content source. Resolution
// and transfer share the deadline carried by ctx; a single attempt, no
// retries.
type Fetcher interface {
	Fetch(ctx context.Context, itemID string) (*Fetched, error)
}

// ImageInfo is the validator's view of accepted bytes.
type ImageInfo struct {
	ContentType string
	Width       int
	Height      int
}

// Validator checks downloaded bytes against the size and dimension policy.
// The declared content type is advisory; the bytes are authoritative.
type Validator interface {
	Validate(data []byte, contentType string) (ImageInfo, error)
}

// Uploader writes validated bytes to the object store and returns an
// addressable locator. Existing keys are overwritten silently.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
}

// Processor runs one descriptor through the full pipeline. It is the unit
// of concurrency: exactly one invocation per descriptor, start to terminal
// stage, with no external interleaving of its stages.
type Processor struct {
	Fetcher     Fetcher
	Validator   Validator
	Uploader    Uploader
	ItemTimeout time.Duration
}

// Process drives a descriptor to a terminal outcome. It never returns an
// error: every failure is captured as a classified Failure outcome.
func (p *Processor) Process(ctx context.Context, bctx BatchContext, d Descriptor) Outcome {
	start := time.Now()
	stage := StagePending

	// Admitted after the batch deadline: fail without touching the network.
	if err := ctx.Err(); err != nil {
		return fail(bctx, d, stage, err)
	}

	itemCtx := ctx
	if p.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, p.ItemTimeout)
		defer cancel()
	}

	stage = StageResolving
	fetched, err := p.Fetcher.Fetch(itemCtx, d.ItemID)
	if err != nil {
		return fail(bctx, d, stage, err)
	}

	stage = StageValidating
	info, err := p.Validator.Validate(fetched.Bytes, fetched.ContentType)
	if err != nil {
		return fail(bctx, d, stage, err)
	}

	stage = StageKeyAssign
	key := d.RequestedKey
	if key == "" {
		key = GenerateKey(bctx, d.ItemID, info.ContentType)
	}

	stage = StageUploading
	locator, err := p.Uploader.Upload(itemCtx, key, fetched.Bytes, info.ContentType, uploadMetadata(bctx, d, info))
	if err != nil {
		return fail(bctx, d, stage, err)
	}

	return Outcome{Success: &Success{
		ItemID:      d.ItemID,
		StorageKey:  key,
		Locator:     locator,
		ByteSize:    int64(len(fetched.Bytes)),
		ContentType: info.ContentType,
		Width:       info.Width,
		Height:      info.Height,
		Elapsed:     time.Since(start),
	}}
}

func fail(bctx BatchContext, d Descriptor, stage Stage, err error) Outcome {
	key := d.RequestedKey
	if key == "" {
		key = GenerateKey(bctx, d.ItemID, "")
	}
	f := &Failure{
		ItemID:     d.ItemID,
		StorageKey: key,
		Kind:       Classify(err),
		Stage:      stage,
		Detail:     err.Error(),
	}
	// The fetcher covers both resolution and transfer; split the stage by
	// the error kind it reported.
	if stage == StageResolving && (f.Kind == KindTransfer || f.Kind == KindTimeout) {
		f.Stage = StageDownloading
	}
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		f.Reason = itemErr.Reason
	}
	return Outcome{Failure: f}
}

func uploadMetadata(bctx BatchContext, d Descriptor, info ImageInfo) map[string]string {
	meta := map[string]string{
		"bot_id":       bctx.OwnerID,
		"user_id":      bctx.SubjectID,
		"avatar_id":    bctx.CollectionID,
		"file_id":      d.ItemID,
		"mode":         string(bctx.Mode),
		"image_width":  strconv.Itoa(info.Width),
		"image_height": strconv.Itoa(info.Height),
	}
	if bctx.BatchID != "" {
		meta["batch_id"] = bctx.BatchID
	}
	return meta
}
