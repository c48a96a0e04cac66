// internal/domain/models.go
package domain

import "time"

// Product represents one shelf product as fetched from object storage.
// The Cells field arrives as a comma-joined list and is deduplicated once
// during preprocessing; products are immutable after that.
type Product struct {
	IDProduct   string  `json:"idProduct"`
	Description string  `json:"description"`
	Cells       string  `json:"cells"`
	Price       *string `json:"price"`
	URL         string  `json:"url,omitempty"`
	Index       int     `json:"index,omitempty"`
}

// SaleEvent is a single purchase within a user session. Price is resolved
// via product lookup at assignment time, not carried on the wire.
type SaleEvent struct {
	IDProduct string   `json:"idProduct"`
	Index     int      `json:"index"`
	Quantity  float64  `json:"quantity"`
	Sequence  int      `json:"sequence"`
	DwellTime *float64 `json:"dwellTime"`
}

// ClickEvent is a product interaction. Index -1 means the click had no
// product target; such events still count toward first-selection tracking.
type ClickEvent struct {
	IDProduct string   `json:"idProduct"`
	Index     int      `json:"index"`
	Time      float64  `json:"time"`
	Count     float64  `json:"count"`
	DwellTime *float64 `json:"dwellTime"`
}

// ViewEvent is a dwell on a product position. Timer is fractional seconds.
type ViewEvent struct {
	Index int     `json:"index"`
	Timer float64 `json:"timer"`
}

// FunnelEvent records whether a viewed product converted to a purchase.
type FunnelEvent struct {
	Index      int `json:"index"`
	Conversion int `json:"conversion"`
}

// NonPurchaseEvent marks a product the user considered but did not buy.
type NonPurchaseEvent struct {
	Index int `json:"index"`
}

// SessionTimers carries the per-session time aggregates.
type SessionTimers struct {
	TotalTime    float64 `json:"totalTime"`
	ShoppingTime float64 `json:"shoppingTime"`
}

// UserRecord is one survey respondent's full session. Funnels and
// NotPurchased are optional on the wire; absence means empty, never an error.
type UserRecord struct {
	IDSurvey     string             `json:"idSurvey"`
	IDMaster     string             `json:"idMaster"`
	IDCell       string             `json:"idCell"`
	Sales        []SaleEvent        `json:"sales"`
	Clicks       []ClickEvent       `json:"clicks"`
	Views        []ViewEvent        `json:"views"`
	Funnels      []FunnelEvent      `json:"funnels,omitempty"`
	NotPurchased []NonPurchaseEvent `json:"notPurchased,omitempty"`
	Timers       SessionTimers      `json:"timers"`
}

// FindabilityRecord is one respondent's findability task result. The whole
// findability document is optional for a run.
type FindabilityRecord struct {
	IDSurvey  string  `json:"idSurvey"`
	IDMaster  string  `json:"idMaster"`
	IDCell    string  `json:"idCell"`
	Targets   string  `json:"targets"`
	Selected  string  `json:"selected"`
	TimerRaw  float64 `json:"timerRaw"`
	Validator int     `json:"validator"`
}

// ReportCounts summarizes the input volume of a run.
type ReportCounts struct {
	ProductCount int `json:"product_count"`
	UserCount    int `json:"user_count"`
}

// Manifest is the immutable result of one successful report run.
type Manifest struct {
	Filename        string       `json:"filename"`
	StorageKey      string       `json:"storage_key"`
	DownloadURL     string       `json:"download_url"`
	DurationSeconds float64      `json:"duration_seconds"`
	Counts          ReportCounts `json:"counts"`
	PricingIncluded bool         `json:"pricing_included"`
	DatasetSizeMode string       `json:"dataset_size_mode"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// JobStatus enumerates the lifecycle of a tracked report job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobRecord is the poll-visible state of a report job.
type JobRecord struct {
	JobID     string     `json:"job_id"`
	ProjectID string     `json:"project_id"`
	Status    JobStatus  `json:"status"`
	Percent   float64    `json:"percent"`
	Step      string     `json:"step"`
	Manifest  *Manifest  `json:"manifest,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DoneAt    *time.Time `json:"done_at,omitempty"`
}
