// pkg/schema/messages.go
package schema

// Mode discriminates the two request shapes carried on the upload subject.
const (
	ModeTrain = "train"
	ModeInf   = "inf"
)

// PhotoFile identifies one photo inside a request. FileID is either a
// Telegram file identifier or a direct http(s) URL. S3Key, when set, is used
// verbatim as the storage key.
type PhotoFile struct {
	FileID   string `json:"file_id"`
	S3Key    string `json:"s3_key,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// PhotoUploadRequest is the inbound payload. Header "train" carries Photos;
// header "inf" carries the single Photo.
type PhotoUploadRequest struct {
	Header   string      `json:"header"`
	Photos   []PhotoFile `json:"photos,omitempty"`
	Photo    *PhotoFile  `json:"photo,omitempty"`
	BotID    int64       `json:"bot_id"`
	UserID   int64       `json:"user_id"`
	AvatarID int64       `json:"avatar_id"`
	BatchID  string      `json:"batch_id,omitempty"`
	Priority int         `json:"priority,omitempty"`
}

// FileUploadResult describes one successfully stored photo.
type FileUploadResult struct {
	FileID      string  `json:"file_id"`
	S3Key       string  `json:"s3_key"`
	S3URL       string  `json:"s3_url"`
	FileSize    int64   `json:"file_size"`
	ContentType string  `json:"content_type,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	UploadTime  float64 `json:"upload_time"`
}

// FileUploadError describes one photo that could not be stored.
type FileUploadError struct {
	FileID       string `json:"file_id"`
	S3Key        string `json:"s3_key,omitempty"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
}

// BatchUploadResult is published on the result subject for every routed
// request, even when every item failed. Per-item failures live in
// FailedUploads; the error subject is reserved for routing faults.
type BatchUploadResult struct {
	Header            string             `json:"header"`
	BotID             int64              `json:"bot_id"`
	UserID            int64              `json:"user_id"`
	AvatarID          int64              `json:"avatar_id"`
	BatchID           string             `json:"batch_id,omitempty"`
	TotalFiles        int                `json:"total_files"`
	SuccessfulFiles   int                `json:"successful_files"`
	FailedFiles       int                `json:"failed_files"`
	SuccessfulUploads []FileUploadResult `json:"successful_uploads"`
	FailedUploads     []FileUploadError  `json:"failed_uploads"`
	ProcessingTime    float64            `json:"processing_time"`
	TotalSize         int64              `json:"total_size"`
	Message           string             `json:"message"`
	HappenedAt        int64              `json:"timestamp"`
}

// UploadError is published on the error subject when a request is
// structurally invalid or the worker hit an internal fault before any item
// could be processed.
type UploadError struct {
	Header      string   `json:"header"`
	BotID       int64    `json:"bot_id"`
	UserID      int64    `json:"user_id"`
	AvatarID    int64    `json:"avatar_id"`
	BatchID     string   `json:"batch_id,omitempty"`
	Error       string   `json:"error"`
	ErrorCode   string   `json:"error_code"`
	FailedFiles []string `json:"failed_files"`
	HappenedAt  int64    `json:"timestamp"`
}
