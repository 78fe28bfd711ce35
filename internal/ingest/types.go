// internal/ingest/types.go
package ingest

import "time"

// Mode selects the key-prefix policy and concurrency policy for a request.
// It is decided once by the router and never re-inspected downstream.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeSingle Mode = "single"
)

// Descriptor is one unit of work: a photo reference plus optional advisory
// metadata from the request. Immutable once accepted into a batch.
type Descriptor struct {
	ItemID         string
	RequestedKey   string
	DeclaredSize   int64
	DeclaredWidth  int
	DeclaredHeight int
}

// BatchContext carries the identifiers shared by every item of one
// orchestration run. Immutable for the lifetime of the run.
type BatchContext struct {
	OwnerID      string
	SubjectID    string
	CollectionID string
	BatchID      string
	Mode         Mode
	Priority     int
}

// Success records one stored photo.
type Success struct {
	ItemID      string
	StorageKey  string
	Locator     string
	ByteSize    int64
	ContentType string
	Width       int
	Height      int
	Elapsed     time.Duration
}

// Failure records one photo that reached a terminal failed state. Stage is
// the pipeline stage that failed; Reason narrows validation failures.
type Failure struct {
	ItemID     string
	StorageKey string
	Kind       Kind
	Reason     ValidationReason
	Stage      Stage
	Detail     string
}

// Outcome is the terminal record for one descriptor. Exactly one of Success
// or Failure is set.
type Outcome struct {
	Success *Success
	Failure *Failure
}

// BatchResult is built once after all outcomes for a batch are known or the
// batch deadline has elapsed.
type BatchResult struct {
	Context    BatchContext
	Total      int
	Succeeded  int
	Failed     int
	Successes  []Success
	Failures   []Failure
	TotalBytes int64
	Elapsed    time.Duration
	ProducedAt time.Time
}
