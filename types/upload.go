package types

import (
	"encoding/json"
	"time"
)

// UploadResult is the JSON body returned by POST /upload once the server
// has stored, scanned and recognized the document.
type UploadResult struct {
	Filename           string    `json:"filename"`
	Size               int64     `json:"size"`
	MimeType           string    `json:"mimeType"`
	RecognizedText     string    `json:"recognizedText"`
	UploadedAt         time.Time `json:"uploadedAt"`
	SecurityScanPassed bool      `json:"securityScanPassed"`
	StoragePath        string    `json:"storagePath"`
}

// ErrorBody is the structured error payload the server sends on failure.
type ErrorBody struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// UploadInfo is the server-declared limits document from GET /upload/info.
// Raw holds the body unchanged; the typed fields are a best-effort view.
type UploadInfo struct {
	Raw json.RawMessage `json:"-"`

	MaxFileSize  string   `json:"maxFileSize,omitempty"`
	AllowedTypes []string `json:"allowedTypes,omitempty"`
	Features     []string `json:"features,omitempty"`
}
