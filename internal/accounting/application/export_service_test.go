package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	accounting "oliver-admin/internal/accounting/domain"
	"oliver-admin/internal/accounting/infrastructure/memory"
	"oliver-admin/internal/accounting/render"
	"oliver-admin/internal/notify"
)

type stubStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Put(_ context.Context, key string, body []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = body
	return nil
}

func (s *stubStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://files.test/%s?ttl=%s", key, ttl), nil
}

type stubNotifier struct {
	mu   sync.Mutex
	msgs []notify.ExportCompleted
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, msg notify.ExportCompleted) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

type panicRenderer struct{}

func (panicRenderer) Render(accounting.Format, accounting.ExportType, accounting.Dataset) (render.Document, error) {
	panic("renderer exploded")
}

type fixture struct {
	ledger   *memory.Ledger
	repo     *memory.ExportRepository
	store    *stubStore
	notifier *stubNotifier
	svc      *ExportService
}

func newFixture(t *testing.T, renderer DocumentRenderer) *fixture {
	t.Helper()
	f := &fixture{
		ledger:   memory.NewLedger(),
		repo:     memory.NewExportRepository(),
		store:    newStubStore(),
		notifier: &stubNotifier{},
	}
	summaries, err := NewSummaryService(f.ledger, accounting.DefaultCommissionRate, time.UTC)
	if err != nil {
		t.Fatalf("summary service: %v", err)
	}
	projector, err := NewProjector(f.ledger, summaries)
	if err != nil {
		t.Fatalf("projector: %v", err)
	}
	if renderer == nil {
		renderer = render.NewRenderer(render.Options{})
	}
	f.svc, err = NewExportService(f.repo, projector, renderer, f.store, f.notifier)
	if err != nil {
		t.Fatalf("export service: %v", err)
	}
	return f
}

func (f *fixture) submit(t *testing.T, filters accounting.ExportFilters) *accounting.ExportJob {
	t.Helper()
	req, err := ParseExportRequest(filters, time.UTC)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	job, err := f.svc.Submit(context.Background(), "admin-1", req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != accounting.StatusProcessing {
		t.Fatalf("submit must return PROCESSING, got %s", job.Status)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.svc.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	stored, err := f.repo.Get(context.Background(), job.ID)
	if err != nil || stored == nil {
		t.Fatalf("get: %v", err)
	}
	return stored
}

func seedPayments(l *memory.Ledger) {
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	for i, amount := range []int64{1000, 2500, 4999} {
		l.AddPayment(accounting.Payment{
			ID:            fmt.Sprintf("pay-%d", i),
			Amount:        amount,
			ProcessingFee: 30,
			Type:          accounting.PaymentSubscription,
			Status:        accounting.PaymentSucceeded,
			PaymentMethod: "card",
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
			Username:      "alice",
			Email:         "alice@example.com",
		})
	}
}

func TestExportCompletesWithArtifact(t *testing.T) {
	f := newFixture(t, nil)
	seedPayments(f.ledger)

	job := f.submit(t, accounting.ExportFilters{Type: "transactions", Format: "csv", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s (%s)", job.Status, job.ErrorMessage)
	}
	if job.RowCount != 3 {
		t.Fatalf("expected 3 rows, got %d", job.RowCount)
	}
	key := "exports/" + job.ID + ".csv"
	if job.FileKey != key || !strings.Contains(job.FileURL, key) {
		t.Fatalf("unexpected artifact %q %q", job.FileKey, job.FileURL)
	}
	body := f.store.objects[key]
	if int64(len(body)) != job.FileSize {
		t.Fatalf("file size %d does not match stored %d", job.FileSize, len(body))
	}
	if !strings.Contains(string(body), "49.99") {
		t.Fatalf("amount missing from csv: %s", body)
	}
	if job.ExpiresAt == nil || job.CompletedAt == nil || !job.ExpiresAt.Equal(job.CompletedAt.Add(accounting.ArtifactTTL)) {
		t.Fatalf("unexpected expiry %v / %v", job.CompletedAt, job.ExpiresAt)
	}
	if len(f.notifier.msgs) != 1 || f.notifier.msgs[0].ExportID != job.ID || f.notifier.msgs[0].ActorID != "admin-1" {
		t.Fatalf("unexpected notifications %+v", f.notifier.msgs)
	}

	got, err := f.svc.Get(context.Background(), job.ID)
	if err != nil || got.FileURL != job.FileURL {
		t.Fatalf("get: %v", err)
	}
}

func TestExportStorageFailureMarksFailed(t *testing.T) {
	f := newFixture(t, nil)
	seedPayments(f.ledger)
	f.store.putErr = errors.New("bucket unavailable")

	job := f.submit(t, accounting.ExportFilters{Type: "transactions", Format: "xlsx", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusFailed {
		t.Fatalf("expected FAILED, got %s", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "bucket unavailable") {
		t.Fatalf("unexpected error message %q", job.ErrorMessage)
	}
	if job.FileURL != "" || job.FileKey != "" || job.CompletedAt != nil {
		t.Fatalf("failed job has artifact fields: %+v", job)
	}
	if len(f.notifier.msgs) != 0 {
		t.Fatalf("failed export must not notify")
	}
	if _, err := f.svc.Get(context.Background(), job.ID); !errors.Is(err, accounting.ErrExportNotReady) {
		t.Fatalf("expected ErrExportNotReady, got %v", err)
	}
}

func TestExportEmptyTabularFails(t *testing.T) {
	f := newFixture(t, nil)
	job := f.submit(t, accounting.ExportFilters{Type: "payouts", Format: "csv", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusFailed || !strings.Contains(job.ErrorMessage, "no data to export") {
		t.Fatalf("unexpected job %s %q", job.Status, job.ErrorMessage)
	}
}

func TestExportEmptyPDFCompletes(t *testing.T) {
	f := newFixture(t, nil)
	job := f.submit(t, accounting.ExportFilters{Type: "payouts", Format: "pdf", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusCompleted || job.RowCount != 0 {
		t.Fatalf("unexpected job %s rows=%d", job.Status, job.RowCount)
	}
}

func TestExportPanicMarksFailed(t *testing.T) {
	f := newFixture(t, panicRenderer{})
	seedPayments(f.ledger)
	job := f.submit(t, accounting.ExportFilters{Type: "transactions", Format: "pdf", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusFailed || !strings.Contains(job.ErrorMessage, "renderer exploded") {
		t.Fatalf("unexpected job %s %q", job.Status, job.ErrorMessage)
	}
}

func TestExportNotifyFailureKeepsCompleted(t *testing.T) {
	f := newFixture(t, nil)
	seedPayments(f.ledger)
	f.notifier.err = errors.New("socket closed")
	job := f.submit(t, accounting.ExportFilters{Type: "accounting", Format: "pdf", DateFrom: "2024-03-01", DateTo: "2024-03-31"})
	if job.Status != accounting.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", job.Status)
	}
}

func TestExportFiltersStoredVerbatim(t *testing.T) {
	f := newFixture(t, nil)
	seedPayments(f.ledger)
	filters := accounting.ExportFilters{Type: "accounting", Format: "csv", DateFrom: "2024-03-01", DateTo: "2024-03-15T23:00:00Z"}
	job := f.submit(t, filters)
	if job.Filters != filters {
		t.Fatalf("filters changed: %+v", job.Filters)
	}
}

func TestGetDistinguishesMissingFromNotReady(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.svc.Get(ctx, "nope"); !errors.Is(err, accounting.ErrExportNotFound) {
		t.Fatalf("expected ErrExportNotFound, got %v", err)
	}
	pending := accounting.NewExportJob("pending", "admin-1", accounting.ExportPayouts, accounting.FormatCSV, accounting.ExportFilters{}, time.Now())
	if err := f.repo.Create(ctx, pending); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Get(ctx, "pending"); !errors.Is(err, accounting.ErrExportNotReady) {
		t.Fatalf("expected ErrExportNotReady, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		job := accounting.NewExportJob(fmt.Sprintf("job-%d", i), "admin-1", accounting.ExportPayouts, accounting.FormatCSV, accounting.ExportFilters{}, base.Add(time.Duration(i)*time.Minute))
		if err := f.repo.Create(ctx, job); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	failed := accounting.NewExportJob("job-failed", "admin-1", accounting.ExportPayouts, accounting.FormatCSV, accounting.ExportFilters{}, base.Add(10*time.Minute))
	_ = f.repo.Create(ctx, failed)
	_ = failed.Fail("boom")
	_ = f.repo.Save(ctx, failed)

	var seen []string
	cursor := ""
	for pageNo := 0; pageNo < 5; pageNo++ {
		page, err := f.svc.List(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, item := range page.Items {
			seen = append(seen, item.ID)
		}
		if !page.HasMore {
			if page.NextCursor != "" {
				t.Fatalf("last page must not carry a cursor")
			}
			break
		}
		if len(page.Items) != 2 || page.NextCursor != page.Items[1].ID {
			t.Fatalf("unexpected page %+v", page)
		}
		cursor = page.NextCursor
	}
	want := "job-4,job-3,job-2,job-1,job-0"
	if strings.Join(seen, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(seen, ","))
	}

	page, err := f.svc.List(ctx, "unknown", 2)
	if err != nil || len(page.Items) != 0 || page.HasMore {
		t.Fatalf("unknown cursor should yield empty page, got %+v %v", page, err)
	}
}

func TestParseExportRequest(t *testing.T) {
	req, err := ParseExportRequest(accounting.ExportFilters{Type: "payouts", Format: "pdf", DateFrom: "2024-03-01", DateTo: "2024-03-01"}, time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !req.Range.Contains(time.Date(2024, 3, 1, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("date-only dateTo must cover the whole day: %+v", req.Range)
	}

	cases := []accounting.ExportFilters{
		{Type: "ledger", Format: "csv", DateFrom: "2024-03-01", DateTo: "2024-03-02"},
		{Type: "payouts", Format: "docx", DateFrom: "2024-03-01", DateTo: "2024-03-02"},
		{Type: "payouts", Format: "csv", DateFrom: "", DateTo: "2024-03-02"},
		{Type: "payouts", Format: "csv", DateFrom: "2024-03-05", DateTo: "2024-03-02"},
		{Type: "payouts", Format: "csv", DateFrom: "yesterday", DateTo: "2024-03-02"},
	}
	for _, c := range cases {
		if _, err := ParseExportRequest(c, time.UTC); !accounting.IsValidation(err) {
			t.Fatalf("%+v: expected validation error, got %v", c, err)
		}
	}
}

type flakySaveRepo struct {
	*memory.ExportRepository
	mu       sync.Mutex
	failures int
}

func (r *flakySaveRepo) Save(ctx context.Context, job *accounting.ExportJob) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return errors.New("connection reset")
	}
	r.mu.Unlock()
	return r.ExportRepository.Save(ctx, job)
}

func TestExportCompletionSaveFailureMarksFailed(t *testing.T) {
	ledger := memory.NewLedger()
	seedPayments(ledger)
	repo := &flakySaveRepo{ExportRepository: memory.NewExportRepository(), failures: 1}
	summaries, _ := NewSummaryService(ledger, accounting.DefaultCommissionRate, time.UTC)
	projector, _ := NewProjector(ledger, summaries)
	notifier := &stubNotifier{}
	svc, err := NewExportService(repo, projector, render.NewRenderer(render.Options{}), newStubStore(), notifier)
	if err != nil {
		t.Fatalf("export service: %v", err)
	}

	req, err := ParseExportRequest(accounting.ExportFilters{Type: "transactions", Format: "csv", DateFrom: "2024-03-01", DateTo: "2024-03-31"}, time.UTC)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	ctx := context.Background()
	job, err := svc.Submit(ctx, "admin-1", req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := svc.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	stored, _ := repo.Get(ctx, job.ID)
	if stored.Status != accounting.StatusFailed || !strings.Contains(stored.ErrorMessage, "connection reset") {
		t.Fatalf("expected FAILED with save error, got %s %q", stored.Status, stored.ErrorMessage)
	}
	if stored.FileURL != "" || stored.CompletedAt != nil || stored.ExpiresAt != nil {
		t.Fatalf("failed job must not carry artifact fields: %+v", stored)
	}
	page, err := svc.List(ctx, "", 10)
	if err != nil || len(page.Items) != 0 {
		t.Fatalf("failed job must leave history, got %+v %v", page.Items, err)
	}
	if len(notifier.msgs) != 0 {
		t.Fatalf("unsaved completion must not notify")
	}
}
