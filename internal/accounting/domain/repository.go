package accounting

import (
	"context"
	"time"
)

// LedgerReader is the read-only view over payments and payouts.
type LedgerReader interface {
	// SumRevenue totals successful payments of the given types created in window.
	SumRevenue(ctx context.Context, window DateRange, types []PaymentType) (int64, error)
	// SumFees totals processing fees of successful payments of any type
	// created in window.
	SumFees(ctx context.Context, window DateRange) (int64, error)
	// SumPayouts totals completed payouts whose completion falls in window.
	SumPayouts(ctx context.Context, window DateRange) (int64, error)
	// SumByType totals successful payments of one type created in window.
	SumByType(ctx context.Context, window DateRange, paymentType PaymentType) (int64, error)
	// Payments lists payments created in window, newest first. An empty status
	// means any status.
	Payments(ctx context.Context, window DateRange, status string) ([]Payment, error)
	// Payouts lists payouts created in window, newest first.
	Payouts(ctx context.Context, window DateRange) ([]Payout, error)
}

// ExportPage is one page of export history.
type ExportPage struct {
	Items      []*ExportJob
	NextCursor string
	HasMore    bool
}

// ExportRepository persists export jobs.
type ExportRepository interface {
	Create(ctx context.Context, job *ExportJob) error
	// Save writes the status and artifact fields of an existing job.
	Save(ctx context.Context, job *ExportJob) error
	// Get returns nil, nil when the job does not exist.
	Get(ctx context.Context, id string) (*ExportJob, error)
	// ListActive returns up to limit non-failed, non-expired jobs created
	// strictly after the cursor job in newest-first order.
	ListActive(ctx context.Context, now time.Time, cursor string, limit int) ([]*ExportJob, error)
}
