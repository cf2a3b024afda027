package accounting

import (
	"fmt"
	"time"
)

// ArtifactTTL is how long a completed export stays downloadable.
const ArtifactTTL = 7 * 24 * time.Hour

// ExportType selects the dataset of an export.
type ExportType string

const (
	ExportAccounting   ExportType = "accounting"
	ExportTransactions ExportType = "transactions"
	ExportPayouts      ExportType = "payouts"
)

// ParseExportType validates an export type.
func ParseExportType(value string) (ExportType, error) {
	switch ExportType(value) {
	case ExportAccounting, ExportTransactions, ExportPayouts:
		return ExportType(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidExportType, value)
	}
}

// Format selects the document encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatCSV, FormatPDF, FormatXLSX:
		return Format(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
}

// Status is the lifecycle state of an export job.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ExportFilters is the request payload, stored verbatim on the job.
type ExportFilters struct {
	Type     string `json:"type"`
	Format   string `json:"format"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// Initiator is the display projection of the admin who started a job.
type Initiator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Artifact describes a stored document.
type Artifact struct {
	URL      string
	Key      string
	Size     int64
	RowCount int
}

// ExportJob is one asynchronous export request.
type ExportJob struct {
	ID            string
	Type          ExportType
	Format        Format
	InitiatedByID string
	InitiatedBy   *Initiator
	Status        Status
	Filters       ExportFilters
	FileURL       string
	FileKey       string
	FileSize      int64
	RowCount      int
	ErrorMessage  string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	ExpiresAt     *time.Time
}

// NewExportJob constructs a job in PROCESSING.
func NewExportJob(id, actorID string, exportType ExportType, format Format, filters ExportFilters, now time.Time) *ExportJob {
	return &ExportJob{
		ID:            id,
		Type:          exportType,
		Format:        format,
		InitiatedByID: actorID,
		Status:        StatusProcessing,
		Filters:       filters,
		CreatedAt:     now.UTC(),
	}
}

// Complete records the artifact and moves the job to COMPLETED.
func (j *ExportJob) Complete(artifact Artifact, now time.Time) error {
	if j == nil {
		return ErrNilJob
	}
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusCompleted)
	}
	completed := now.UTC()
	expires := completed.Add(ArtifactTTL)
	j.Status = StatusCompleted
	j.FileURL = artifact.URL
	j.FileKey = artifact.Key
	j.FileSize = artifact.Size
	j.RowCount = artifact.RowCount
	j.CompletedAt = &completed
	j.ExpiresAt = &expires
	j.ErrorMessage = ""
	return nil
}

// Fail moves the job to FAILED with a message. Artifact fields stay empty.
func (j *ExportJob) Fail(message string) error {
	if j == nil {
		return ErrNilJob
	}
	if j.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, StatusFailed)
	}
	if message == "" {
		message = "Unknown error"
	}
	j.Status = StatusFailed
	j.ErrorMessage = message
	j.FileURL = ""
	j.FileKey = ""
	j.FileSize = 0
	j.RowCount = 0
	return nil
}

// Downloadable reports whether the job has an artifact link.
func (j *ExportJob) Downloadable() bool {
	return j != nil && j.FileURL != ""
}

// Listed reports whether the job belongs in history at now.
func (j *ExportJob) Listed(now time.Time) bool {
	if j == nil || j.Status == StatusFailed {
		return false
	}
	return j.ExpiresAt == nil || j.ExpiresAt.After(now)
}

// ExportRequest is a validated export submission.
type ExportRequest struct {
	Type    ExportType
	Format  Format
	Range   DateRange
	Filters ExportFilters
}
