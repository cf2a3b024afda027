package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"

	accounting "oliver-admin/internal/accounting/domain"
)

// ExportRepository persists export jobs in export_jobs.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository constructs a repository.
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

const exportColumns = `
	e.id, e.type, e.format, e.initiated_by_id, e.status, e.filters,
	COALESCE(e.file_url, ''), COALESCE(e.file_key, ''), COALESCE(e.file_size, 0), COALESCE(e.row_count, 0),
	COALESCE(e.error_message, ''), e.created_at, e.completed_at, e.expires_at,
	COALESCE(u.username, ''), COALESCE(u.email, ''), COALESCE(u.avatar, '')`

// Create inserts a new job.
func (r *ExportRepository) Create(ctx context.Context, job *accounting.ExportJob) error {
	if r == nil || r.db == nil {
		return errors.New("export repo: nil db")
	}
	if job == nil {
		return accounting.ErrNilJob
	}
	filters, err := json.Marshal(job.Filters)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO export_jobs (id, type, format, initiated_by_id, status, filters, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		job.ID, string(job.Type), string(job.Format), job.InitiatedByID, string(job.Status), filters, job.CreatedAt.UTC())
	return err
}

// Save writes status, artifact and error fields. The WHERE clause refuses to
// overwrite a terminal row.
func (r *ExportRepository) Save(ctx context.Context, job *accounting.ExportJob) error {
	if r == nil || r.db == nil {
		return errors.New("export repo: nil db")
	}
	if job == nil {
		return accounting.ErrNilJob
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE export_jobs
SET status = $1, file_url = NULLIF($2, ''), file_key = NULLIF($3, ''), file_size = $4, row_count = $5,
	error_message = NULLIF($6, ''), completed_at = $7, expires_at = $8
WHERE id = $9 AND status = $10`,
		string(job.Status), job.FileURL, job.FileKey, nullInt(job.FileSize), nullInt(int64(job.RowCount)),
		job.ErrorMessage, nullTime(job.CompletedAt), nullTime(job.ExpiresAt), job.ID, string(accounting.StatusProcessing))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return accounting.ErrInvalidTransition
	}
	return nil
}

// Get returns the job or nil when missing.
func (r *ExportRepository) Get(ctx context.Context, id string) (*accounting.ExportJob, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("export repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT`+exportColumns+`
FROM export_jobs e
LEFT JOIN users u ON u.id = e.initiated_by_id
WHERE e.id = $1`, id)
	job, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// ListActive returns non-failed, non-expired jobs older than the cursor job.
// An unknown cursor yields no rows.
func (r *ExportRepository) ListActive(ctx context.Context, now time.Time, cursor string, limit int) ([]*accounting.ExportJob, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("export repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT`+exportColumns+`
FROM export_jobs e
LEFT JOIN users u ON u.id = e.initiated_by_id
WHERE e.status IN ('PROCESSING', 'COMPLETED')
	AND (e.expires_at IS NULL OR e.expires_at > $1)
	AND ($2::text = '' OR (e.created_at, e.id) < (SELECT c.created_at, c.id FROM export_jobs c WHERE c.id = $2))
ORDER BY e.created_at DESC, e.id DESC
LIMIT $3`, now.UTC(), cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*accounting.ExportJob
	for rows.Next() {
		job, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*accounting.ExportJob, error) {
	var (
		job                     accounting.ExportJob
		exportType, format      string
		status                  string
		filters                 []byte
		completedAt, expiresAt  sql.NullTime
		username, email, avatar string
	)
	if err := s.Scan(
		&job.ID, &exportType, &format, &job.InitiatedByID, &status, &filters,
		&job.FileURL, &job.FileKey, &job.FileSize, &job.RowCount,
		&job.ErrorMessage, &job.CreatedAt, &completedAt, &expiresAt,
		&username, &email, &avatar,
	); err != nil {
		return nil, err
	}
	job.Type = accounting.ExportType(exportType)
	job.Format = accounting.Format(format)
	job.Status = accounting.Status(status)
	job.CreatedAt = job.CreatedAt.UTC()
	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &job.Filters); err != nil {
			return nil, err
		}
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		job.CompletedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		job.ExpiresAt = &t
	}
	job.InitiatedBy = &accounting.Initiator{ID: job.InitiatedByID, Username: username, Email: email, Avatar: avatar}
	return &job, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
