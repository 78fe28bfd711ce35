package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	fetched *Fetched
	err     error
	block   bool
}

func (s *stubFetcher) Fetch(ctx context.Context, itemID string) (*Fetched, error) {
	if s.block {
		<-ctx.Done()
		return nil, NewItemError(KindTransfer, fmt.Errorf("download: %w", ctx.Err()))
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.fetched, nil
}

type stubValidator struct {
	info ImageInfo
	err  error
}

func (s *stubValidator) Validate(data []byte, contentType string) (ImageInfo, error) {
	if s.err != nil {
		return ImageInfo{}, s.err
	}
	return s.info, nil
}

type stubUploader struct {
	locator string
	err     error

	gotKey         string
	gotContentType string
	gotMetadata    map[string]string
}

func (s *stubUploader) Upload(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error) {
	s.gotKey = key
	s.gotContentType = contentType
	s.gotMetadata = metadata
	if s.err != nil {
		return "", s.err
	}
	return s.locator, nil
}

func okProcessor(uploader *stubUploader) *Processor {
	return &Processor{
		Fetcher:   &stubFetcher{fetched: &Fetched{Bytes: []byte("image-bytes"), ContentType: "image/png"}},
		Validator: &stubValidator{info: ImageInfo{ContentType: "image/png", Width: 640, Height: 480}},
		Uploader:  uploader,
	}
}

func TestProcessSuccess(t *testing.T) {
	uploader := &stubUploader{locator: "https://cdn/101/202/303/photo-1.png"}
	p := okProcessor(uploader)

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Success)
	require.Nil(t, out.Failure)
	assert.Equal(t, "photo-1", out.Success.ItemID)
	assert.Equal(t, "101/202/303/photo-1.png", out.Success.StorageKey)
	assert.Equal(t, "https://cdn/101/202/303/photo-1.png", out.Success.Locator)
	assert.Equal(t, int64(len("image-bytes")), out.Success.ByteSize)
	assert.Equal(t, "image/png", out.Success.ContentType)
	assert.Equal(t, 640, out.Success.Width)
	assert.Equal(t, 480, out.Success.Height)
}

func TestProcessUsesRequestedKeyVerbatim(t *testing.T) {
	uploader := &stubUploader{locator: "https://cdn/custom"}
	p := okProcessor(uploader)

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1", RequestedKey: "custom/key.png"})

	require.NotNil(t, out.Success)
	assert.Equal(t, "custom/key.png", out.Success.StorageKey)
	assert.Equal(t, "custom/key.png", uploader.gotKey)
}

func TestProcessUploadMetadata(t *testing.T) {
	uploader := &stubUploader{locator: "https://cdn/x"}
	p := okProcessor(uploader)

	bctx := batchCtx(ModeBatch)
	bctx.BatchID = "batch-9"
	p.Process(context.Background(), bctx, Descriptor{ItemID: "photo-1"})

	assert.Equal(t, "101", uploader.gotMetadata["bot_id"])
	assert.Equal(t, "202", uploader.gotMetadata["user_id"])
	assert.Equal(t, "303", uploader.gotMetadata["avatar_id"])
	assert.Equal(t, "photo-1", uploader.gotMetadata["file_id"])
	assert.Equal(t, "batch-9", uploader.gotMetadata["batch_id"])
	assert.Equal(t, "640", uploader.gotMetadata["image_width"])
	assert.Equal(t, "480", uploader.gotMetadata["image_height"])
}

func TestProcessFetchFailure(t *testing.T) {
	p := okProcessor(&stubUploader{})
	p.Fetcher = &stubFetcher{err: NewItemError(KindResolution, errors.New("telegram api: file not found"))}

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindResolution, out.Failure.Kind)
	assert.Equal(t, StageResolving, out.Failure.Stage)
	assert.NotEmpty(t, out.Failure.StorageKey)
}

func TestProcessTransferFailureReportsDownloadStage(t *testing.T) {
	p := okProcessor(&stubUploader{})
	p.Fetcher = &stubFetcher{err: NewItemError(KindTransfer, errors.New("download returned status 502"))}

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindTransfer, out.Failure.Kind)
	assert.Equal(t, StageDownloading, out.Failure.Stage)
}

func TestProcessValidationFailure(t *testing.T) {
	p := okProcessor(&stubUploader{})
	p.Validator = &stubValidator{err: NewValidationError(ReasonTooSmall, errors.New("file size 10 below minimum 1024"))}

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindValidation, out.Failure.Kind)
	assert.Equal(t, ReasonTooSmall, out.Failure.Reason)
	assert.Equal(t, StageValidating, out.Failure.Stage)
}

func TestProcessStorageFailure(t *testing.T) {
	uploader := &stubUploader{err: NewItemError(KindStorage, errors.New("put object: access denied"))}
	p := okProcessor(uploader)

	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindStorage, out.Failure.Kind)
	assert.Equal(t, StageUploading, out.Failure.Stage)
}

func TestProcessExpiredContextFailsWithoutWork(t *testing.T) {
	uploader := &stubUploader{}
	p := okProcessor(uploader)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.Process(ctx, batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindTimeout, out.Failure.Kind)
	assert.Empty(t, uploader.gotKey, "uploader must not be touched after the deadline")
}

func TestProcessItemTimeout(t *testing.T) {
	p := okProcessor(&stubUploader{})
	p.Fetcher = &stubFetcher{block: true}
	p.ItemTimeout = 20 * time.Millisecond

	start := time.Now()
	out := p.Process(context.Background(), batchCtx(ModeBatch), Descriptor{ItemID: "photo-1"})

	require.NotNil(t, out.Failure)
	assert.Equal(t, KindTimeout, out.Failure.Kind)
	assert.Less(t, time.Since(start), 2*time.Second)
}
