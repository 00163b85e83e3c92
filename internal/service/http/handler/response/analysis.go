package response

import "time"

type Analysis struct {
	Id           int          `json:"id"`
	DocumentId   int          `json:"document_id"`
	SessionId    string       `json:"session_id"`
	Prompt       string       `json:"prompt"`
	PageIndexes  []int        `json:"pages"`
	Model        string       `json:"model"`
	Status       string       `json:"status"`
	Answer       string       `json:"answer"`
	FailedReason string       `json:"failed_reason,omitempty"`
	OcrText      string       `json:"ocr_text,omitempty"`
	CacheHit     bool         `json:"cache_hit"`
	Finished     bool         `json:"finished"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Invocations  []Invocation `json:"invocations,omitempty"`
}

type Invocation struct {
	SupplierName string    `json:"supplier_name"`
	ModelName    string    `json:"model_name"`
	StatusCode   int       `json:"status_code"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}
