// internal/ingest/keys.go
package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// inferencePrefix separates single-photo inference uploads from training
// batches in the bucket.
const inferencePrefix = "uploads/inf"

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

// ExtensionFor derives a file extension from a resolved content type,
// defaulting to jpg when the type is unknown.
func ExtensionFor(contentType string) string {
	ct := contentType
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if ext, ok := extByContentType[strings.ToLower(strings.TrimSpace(ct))]; ok {
		return ext
	}
	return "jpg"
}

// GenerateKey derives the storage key for an item that did not request one.
// Keys are a pure function of the batch context, item id and content type;
// they deliberately contain no wall-clock component so a redelivered batch
// derives the same keys as the first attempt. An item without an id falls
// back to a random identifier.
//
// Batch mode:  {owner}/{subject}/{collection}/{item}.{ext}
// Single mode: uploads/inf/{owner}/{subject}/{collection}/{item}.{ext}
func GenerateKey(bctx BatchContext, itemID, contentType string) string {
	if itemID == "" {
		itemID = uuid.NewString()
	}
	key := fmt.Sprintf("%s/%s/%s/%s.%s",
		bctx.OwnerID, bctx.SubjectID, bctx.CollectionID, itemID, ExtensionFor(contentType))
	if bctx.Mode == ModeSingle {
		return inferencePrefix + "/" + key
	}
	return key
}
