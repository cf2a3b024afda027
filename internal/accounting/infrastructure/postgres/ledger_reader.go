package postgres

import (
	"context"
	"database/sql"
	"errors"

	accounting "oliver-admin/internal/accounting/domain"
)

// LedgerReader reads payments and payouts.
type LedgerReader struct {
	db *sql.DB
}

// NewLedgerReader constructs a LedgerReader.
func NewLedgerReader(db *sql.DB) *LedgerReader {
	return &LedgerReader{db: db}
}

// SumRevenue totals successful payments of the given types in window.
func (r *LedgerReader) SumRevenue(ctx context.Context, window accounting.DateRange, types []accounting.PaymentType) (int64, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return r.sum(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM payments
WHERE status = $1 AND type = ANY($2) AND created_at >= $3 AND created_at <= $4`,
		accounting.PaymentSucceeded, names, window.Start.UTC(), window.End.UTC())
}

// SumFees totals processing fees of successful payments in window.
func (r *LedgerReader) SumFees(ctx context.Context, window accounting.DateRange) (int64, error) {
	return r.sum(ctx, `
SELECT COALESCE(SUM(processing_fee), 0)
FROM payments
WHERE status = $1 AND created_at >= $2 AND created_at <= $3`,
		accounting.PaymentSucceeded, window.Start.UTC(), window.End.UTC())
}

// SumPayouts totals completed payouts by completion time.
func (r *LedgerReader) SumPayouts(ctx context.Context, window accounting.DateRange) (int64, error) {
	return r.sum(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM payouts
WHERE status = $1 AND completed_at >= $2 AND completed_at <= $3`,
		accounting.PayoutCompleted, window.Start.UTC(), window.End.UTC())
}

// SumByType totals successful payments of one type in window.
func (r *LedgerReader) SumByType(ctx context.Context, window accounting.DateRange, paymentType accounting.PaymentType) (int64, error) {
	return r.sum(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM payments
WHERE status = $1 AND type = $2 AND created_at >= $3 AND created_at <= $4`,
		accounting.PaymentSucceeded, string(paymentType), window.Start.UTC(), window.End.UTC())
}

// Payments lists payments created in window, newest first.
func (r *LedgerReader) Payments(ctx context.Context, window accounting.DateRange, status string) ([]accounting.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger reader: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.amount, p.processing_fee, p.type, p.status, COALESCE(p.payment_method, ''), p.created_at,
	COALESCE(u.username, ''), COALESCE(u.email, '')
FROM payments p
LEFT JOIN users u ON u.id = p.user_id
WHERE p.created_at >= $1 AND p.created_at <= $2 AND ($3 = '' OR p.status = $3)
ORDER BY p.created_at DESC, p.id DESC`, window.Start.UTC(), window.End.UTC(), status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accounting.Payment
	for rows.Next() {
		var p accounting.Payment
		var fee sql.NullInt64
		var paymentType string
		if err := rows.Scan(&p.ID, &p.Amount, &fee, &paymentType, &p.Status, &p.PaymentMethod, &p.CreatedAt, &p.Username, &p.Email); err != nil {
			return nil, err
		}
		p.Type = accounting.PaymentType(paymentType)
		p.ProcessingFee = fee.Int64
		p.CreatedAt = p.CreatedAt.UTC()
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Payouts lists payouts created in window, newest first.
func (r *LedgerReader) Payouts(ctx context.Context, window accounting.DateRange) ([]accounting.Payout, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger reader: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.amount, p.status, COALESCE(p.method, ''), p.created_at, p.completed_at,
	COALESCE(u.username, ''), COALESCE(u.email, '')
FROM payouts p
LEFT JOIN users u ON u.id = p.creator_id
WHERE p.created_at >= $1 AND p.created_at <= $2
ORDER BY p.created_at DESC, p.id DESC`, window.Start.UTC(), window.End.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accounting.Payout
	for rows.Next() {
		var p accounting.Payout
		var completed sql.NullTime
		if err := rows.Scan(&p.ID, &p.Amount, &p.Status, &p.Method, &p.CreatedAt, &completed, &p.CreatorUsername, &p.CreatorEmail); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		if completed.Valid {
			t := completed.Time.UTC()
			p.CompletedAt = &t
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *LedgerReader) sum(ctx context.Context, query string, args ...any) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("ledger reader: nil db")
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
