package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	accounting "oliver-admin/internal/accounting/domain"
	"oliver-admin/internal/accounting/render"
	"oliver-admin/internal/logging"
	"oliver-admin/internal/notify"
	"oliver-admin/internal/observability/metrics"
	"oliver-admin/internal/platform/task"
	"oliver-admin/internal/storage"
)

// DocumentRenderer encodes a dataset.
type DocumentRenderer interface {
	Render(format accounting.Format, exportType accounting.ExportType, data accounting.Dataset) (render.Document, error)
}

// ExportService owns the export job lifecycle.
type ExportService struct {
	repo      accounting.ExportRepository
	projector *Projector
	renderer  DocumentRenderer
	store     storage.ObjectStore
	notifier  notify.Notifier
	tasks     task.Group
	linkTTL   time.Duration
	now       func() time.Time
	newID     func() string
}

// ExportOption customises an ExportService.
type ExportOption func(*ExportService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ExportOption {
	return func(s *ExportService) { s.now = now }
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(newID func() string) ExportOption {
	return func(s *ExportService) { s.newID = newID }
}

// WithLinkTTL overrides the download link validity.
func WithLinkTTL(ttl time.Duration) ExportOption {
	return func(s *ExportService) { s.linkTTL = ttl }
}

// NewExportService constructs an ExportService. notifier may be nil.
func NewExportService(repo accounting.ExportRepository, projector *Projector, renderer DocumentRenderer, store storage.ObjectStore, notifier notify.Notifier, opts ...ExportOption) (*ExportService, error) {
	if repo == nil || projector == nil || renderer == nil || store == nil {
		return nil, errors.New("export service: nil dependency")
	}
	s := &ExportService{
		repo:      repo,
		projector: projector,
		renderer:  renderer,
		store:     store,
		notifier:  notifier,
		linkTTL:   storage.LinkTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit records a PROCESSING job and starts the pipeline in the background.
// The returned job is a snapshot taken before processing starts.
func (s *ExportService) Submit(ctx context.Context, actorID string, req accounting.ExportRequest) (*accounting.ExportJob, error) {
	if actorID == "" {
		return nil, errors.New("export service: empty actor")
	}
	job := accounting.NewExportJob(s.newID(), actorID, req.Type, req.Format, req.Filters, s.now())
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}
	snapshot := *job

	logging.Ctx(ctx).Info().
		Str("event", "export_job_start").
		Str("export_id", job.ID).
		Str("type", string(job.Type)).
		Str("format", string(job.Format)).
		Str("actor_id", actorID).
		Msg("export submitted")

	s.tasks.Go(ctx, "export:"+job.ID, func(ctx context.Context) error {
		return s.process(ctx, job, req.Range)
	})
	return &snapshot, nil
}

// Wait blocks until all submitted exports have finished or ctx ends.
func (s *ExportService) Wait(ctx context.Context) error {
	return s.tasks.Wait(ctx)
}

// process runs the pipeline and records the outcome on the job. It returns an
// error only when the outcome itself could not be persisted.
func (s *ExportService) process(ctx context.Context, job *accounting.ExportJob, window accounting.DateRange) error {
	start := s.now()
	artifact, err := s.build(ctx, job, window)
	if err != nil {
		return s.fail(ctx, job, err, start)
	}
	pending := *job
	if err := job.Complete(artifact, s.now()); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, job); err != nil {
		// The row is still PROCESSING. The stored object is left for the
		// bucket lifecycle to expire.
		return s.fail(ctx, &pending, fmt.Errorf("save completed export: %w", err), start)
	}
	metrics.ObserveExportJob(string(job.Type), string(job.Format), string(job.Status), s.now().Sub(start))
	logging.Ctx(ctx).Info().
		Str("event", "export_job_success").
		Str("export_id", job.ID).
		Int("row_count", job.RowCount).
		Int64("file_size", job.FileSize).
		Msg("export completed")

	s.announce(ctx, job)
	return nil
}

func (s *ExportService) build(ctx context.Context, job *accounting.ExportJob, window accounting.DateRange) (artifact accounting.Artifact, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("export pipeline panic: %v", rec)
		}
	}()

	data, err := s.projector.Project(ctx, job.Type, window)
	if err != nil {
		return accounting.Artifact{}, fmt.Errorf("project %s: %w", job.Type, err)
	}
	doc, err := s.renderer.Render(job.Format, job.Type, data)
	if err != nil {
		return accounting.Artifact{}, fmt.Errorf("render %s: %w", job.Format, err)
	}
	metrics.ObserveExportFile(string(job.Format), len(doc.Body))

	key := storage.Key(job.ID, string(job.Format))
	if err := s.store.Put(ctx, key, doc.Body, doc.ContentType); err != nil {
		return accounting.Artifact{}, fmt.Errorf("store %s: %w", key, err)
	}
	url, err := s.store.SignedURL(ctx, key, s.linkTTL)
	if err != nil {
		return accounting.Artifact{}, fmt.Errorf("sign %s: %w", key, err)
	}
	return accounting.Artifact{
		URL:      url,
		Key:      key,
		Size:     int64(len(doc.Body)),
		RowCount: len(data.Rows),
	}, nil
}

func (s *ExportService) fail(ctx context.Context, job *accounting.ExportJob, cause error, start time.Time) error {
	if err := job.Fail(cause.Error()); err != nil {
		return err
	}
	metrics.ObserveExportJob(string(job.Type), string(job.Format), string(job.Status), s.now().Sub(start))
	logging.Ctx(ctx).Error().
		Str("event", "export_job_failed").
		Str("export_id", job.ID).
		Err(cause).
		Msg("export failed")
	if err := s.repo.Save(ctx, job); err != nil {
		return fmt.Errorf("save failed export %s: %w", job.ID, err)
	}
	return nil
}

// announce is best effort; delivery problems never change the job outcome.
func (s *ExportService) announce(ctx context.Context, job *accounting.ExportJob) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Notify(ctx, notify.ExportCompleted{
		ExportID: job.ID,
		ActorID:  job.InitiatedByID,
		Type:     string(job.Type),
		Format:   string(job.Format),
		FileURL:  job.FileURL,
		FileSize: job.FileSize,
		RowCount: job.RowCount,
	})
	if err != nil {
		metrics.IncNotify(metrics.ResultError)
		logging.Ctx(ctx).Warn().Err(err).Str("export_id", job.ID).Msg("export notification failed")
		return
	}
	metrics.IncNotify(metrics.ResultSuccess)
}

// List returns one page of export history, newest first.
func (s *ExportService) List(ctx context.Context, cursor string, limit int) (accounting.ExportPage, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := s.repo.ListActive(ctx, s.now(), cursor, limit+1)
	if err != nil {
		return accounting.ExportPage{}, err
	}
	page := accounting.ExportPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		page.NextCursor = page.Items[limit-1].ID
	}
	return page, nil
}

// Get returns a job that has a downloadable artifact.
func (s *ExportService) Get(ctx context.Context, id string) (*accounting.ExportJob, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, accounting.ErrExportNotFound
	}
	if !job.Downloadable() {
		return nil, accounting.ErrExportNotReady
	}
	return job, nil
}
