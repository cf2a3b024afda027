package accounting

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExportJobComplete(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	job := NewExportJob("job-1", "admin-1", ExportPayouts, FormatCSV, ExportFilters{Type: "payouts"}, now)
	if job.Status != StatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", job.Status)
	}
	if job.Downloadable() {
		t.Fatalf("new job must not be downloadable")
	}

	err := job.Complete(Artifact{URL: "https://files/x", Key: "exports/job-1.csv", Size: 42, RowCount: 3}, now)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if job.Status != StatusCompleted || job.RowCount != 3 || job.FileSize != 42 {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.ExpiresAt == nil || !job.ExpiresAt.Equal(now.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected expiry %v", job.ExpiresAt)
	}
	if err := job.Fail("late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status changed after rejected transition: %s", job.Status)
	}
}

func TestExportJobFail(t *testing.T) {
	job := NewExportJob("job-2", "admin-1", ExportAccounting, FormatPDF, ExportFilters{}, time.Now())
	if err := job.Fail(""); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if job.ErrorMessage != "Unknown error" {
		t.Fatalf("unexpected message %q", job.ErrorMessage)
	}
	if job.FileURL != "" || job.CompletedAt != nil {
		t.Fatalf("failed job carries artifact fields: %+v", job)
	}
	if err := job.Complete(Artifact{URL: "u"}, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestExportJobListed(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	processing := NewExportJob("a", "u", ExportPayouts, FormatCSV, ExportFilters{}, now)
	if !processing.Listed(now) {
		t.Fatalf("processing job without expiry should be listed")
	}
	done := NewExportJob("b", "u", ExportPayouts, FormatCSV, ExportFilters{}, now)
	_ = done.Complete(Artifact{URL: "u"}, now.Add(-8*24*time.Hour))
	if done.Listed(now) {
		t.Fatalf("expired job should not be listed")
	}
	failed := NewExportJob("c", "u", ExportPayouts, FormatCSV, ExportFilters{}, now)
	_ = failed.Fail("boom")
	if failed.Listed(now) {
		t.Fatalf("failed job should not be listed")
	}
}

func TestNewSummary(t *testing.T) {
	totals := Totals{Revenue: 10_000, Fees: 300, Payouts: 5000}
	s := NewSummary(PeriodMonth, 2024, 3, DateRange{}, totals, Breakdown{}, DefaultCommissionRate)
	if s.Commission != 1500 {
		t.Fatalf("expected commission 1500, got %d", s.Commission)
	}
	if s.NetProfit != 10_000-300-1500 {
		t.Fatalf("unexpected net profit %d", s.NetProfit)
	}
	if s.TotalPayouts != 5000 {
		t.Fatalf("unexpected payouts %d", s.TotalPayouts)
	}
}

func TestCommissionRoundsHalfUp(t *testing.T) {
	if got := Commission(10, DefaultCommissionRate); got != 2 {
		t.Fatalf("expected 1.5 to round to 2, got %d", got)
	}
	if got := Commission(333, decimal.RequireFromString("0.1")); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
}

func TestFieldsPayoutPending(t *testing.T) {
	row := PayoutRow{PayoutID: "p1", Date: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), Amount: 100}
	fields := Fields(row)
	last := fields[len(fields)-1]
	if last.Key != "completedAt" || last.Text != PendingLabel {
		t.Fatalf("unexpected completedAt field %+v", last)
	}
	if fields[1].Text != "2024-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected date %q", fields[1].Text)
	}
	if fields[4].Kind != KindMoney || fields[4].Cents != 100 {
		t.Fatalf("expected money amount, got %+v", fields[4])
	}
}

func TestHeadersTransaction(t *testing.T) {
	got := Headers(TransactionRow{})
	want := []string{"transactionId", "date", "userId", "email", "type", "amount", "processingFee", "status", "paymentMethod"}
	if len(got) != len(want) {
		t.Fatalf("unexpected headers %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("header %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
