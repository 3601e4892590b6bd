package api

import "time"

// Translate statuses reported by the translation backend.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Translate is the detail record of one translation job.
type Translate struct {
	TranslateID    string     `json:"translateId"`
	Status         string     `json:"status"`
	UploadID       string     `json:"uploadId"`
	SourceLanguage string     `json:"sourceLanguage"`
	TargetLanguage string     `json:"targetLanguage"`
	OriginalURL    *string    `json:"originalUrl"`
	ResultURL      *string    `json:"resultUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	ErrorMessage   *string    `json:"errorMessage"`
}

// Completed reports whether the translation finished successfully.
func (t *Translate) Completed() bool { return t != nil && t.Status == StatusCompleted }

// ImageURL returns the corrected image location, or "" when there is none.
func (t *Translate) ImageURL() string {
	if t == nil || t.ResultURL == nil {
		return ""
	}
	return *t.ResultURL
}

// EraseRequest is the body of POST /erase.
type EraseRequest struct {
	TranslateID string `json:"translateId"`
	MaskImage   string `json:"maskImage"`
	SourceImage string `json:"sourceImage,omitempty"`
}

// EraseResponse is the body returned by POST /erase.
type EraseResponse struct {
	ResultImage string `json:"resultImage"`
}

// ErrorDetail is the structured form of a server error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
