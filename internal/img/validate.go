// internal/img/validate.go
package img

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/tendant/photo-ingest/internal/ingest"
)

// supportedContentTypes is the allowlist of image formats accepted for
// storage. Anything else fails validation before decoding is attempted.
var supportedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
}

// Policy holds the externally configured validation thresholds. A zero
// threshold disables its check.
type Policy struct {
	MinSize      int64
	MaxSize      int64
	MinDimension int
}

// Validator checks downloaded bytes against the size and dimension policy.
// Declared request metadata is advisory; only the actual bytes count.
type Validator struct {
	policy Policy
}

func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// Validate implements ingest.Validator. Checks run in order: byte size
// bounds, content-type allowlist, then decode and minimum dimension. The
// first failing check short-circuits.
func (v *Validator) Validate(data []byte, contentType string) (ingest.ImageInfo, error) {
	size := int64(len(data))
	if v.policy.MinSize > 0 && size < v.policy.MinSize {
		return ingest.ImageInfo{}, ingest.NewValidationError(ingest.ReasonTooSmall,
			fmt.Errorf("file size %d below minimum %d", size, v.policy.MinSize))
	}
	if v.policy.MaxSize > 0 && size > v.policy.MaxSize {
		return ingest.ImageInfo{}, ingest.NewValidationError(ingest.ReasonTooLarge,
			fmt.Errorf("file size %d exceeds maximum %d", size, v.policy.MaxSize))
	}

	ct := normalizeContentType(contentType)
	if ct == "" {
		ct = normalizeContentType(http.DetectContentType(data))
	}
	if _, ok := supportedContentTypes[ct]; !ok {
		return ingest.ImageInfo{}, ingest.NewValidationError(ingest.ReasonUnsupportedFormat,
			fmt.Errorf("unsupported content type %q", ct))
	}

	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return ingest.ImageInfo{}, ingest.NewValidationError(ingest.ReasonUnreadableImage,
			fmt.Errorf("decode image: %w", err))
	}
	bounds := decoded.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if v.policy.MinDimension > 0 && (width < v.policy.MinDimension || height < v.policy.MinDimension) {
		return ingest.ImageInfo{}, ingest.NewValidationError(ingest.ReasonDimensionTooSmall,
			fmt.Errorf("image %dx%d below minimum dimension %d", width, height, v.policy.MinDimension))
	}

	return ingest.ImageInfo{ContentType: ct, Width: width, Height: height}, nil
}

func normalizeContentType(contentType string) string {
	ct := contentType
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
