package application

import (
	"context"
	"errors"
	"fmt"

	accounting "oliver-admin/internal/accounting/domain"
)

// Projector turns ledger records into export rows.
type Projector struct {
	ledger    accounting.LedgerReader
	summaries *SummaryService
}

// NewProjector constructs a Projector.
func NewProjector(ledger accounting.LedgerReader, summaries *SummaryService) (*Projector, error) {
	if ledger == nil || summaries == nil {
		return nil, errors.New("projector: nil dependency")
	}
	return &Projector{ledger: ledger, summaries: summaries}, nil
}

// Project builds the dataset of exportType for window.
func (p *Projector) Project(ctx context.Context, exportType accounting.ExportType, window accounting.DateRange) (accounting.Dataset, error) {
	switch exportType {
	case accounting.ExportAccounting:
		return p.accounting(ctx, window)
	case accounting.ExportTransactions:
		return p.transactions(ctx, window)
	case accounting.ExportPayouts:
		return p.payouts(ctx, window)
	default:
		return accounting.Dataset{}, fmt.Errorf("%w: %q", accounting.ErrInvalidExportType, exportType)
	}
}

// accounting pairs the monthly summary of the window's first month with the
// successful payments of the window itself.
func (p *Projector) accounting(ctx context.Context, window accounting.DateRange) (accounting.Dataset, error) {
	from := window.Start.In(p.summaries.loc)
	summary, err := p.summaries.Summary(ctx, SummaryQuery{
		Period: accounting.PeriodMonth,
		Year:   from.Year(),
		Month:  int(from.Month()),
	})
	if err != nil {
		return accounting.Dataset{}, fmt.Errorf("summary: %w", err)
	}
	payments, err := p.ledger.Payments(ctx, window, accounting.PaymentSucceeded)
	if err != nil {
		return accounting.Dataset{}, fmt.Errorf("payments: %w", err)
	}
	rows := make([]accounting.Row, 0, len(payments))
	for _, pay := range payments {
		rows = append(rows, accounting.AccountingRow{
			ID:       pay.ID,
			Date:     pay.CreatedAt,
			Type:     pay.Type,
			Username: pay.Username,
			Amount:   pay.Amount,
			Status:   pay.Status,
		})
	}
	return accounting.Dataset{Summary: accounting.SummaryFields(summary), Rows: rows}, nil
}

func (p *Projector) transactions(ctx context.Context, window accounting.DateRange) (accounting.Dataset, error) {
	payments, err := p.ledger.Payments(ctx, window, "")
	if err != nil {
		return accounting.Dataset{}, fmt.Errorf("payments: %w", err)
	}
	rows := make([]accounting.Row, 0, len(payments))
	for _, pay := range payments {
		rows = append(rows, accounting.TransactionRow{
			TransactionID: pay.ID,
			Date:          pay.CreatedAt,
			UserID:        pay.Username,
			Email:         pay.Email,
			Type:          pay.Type,
			Amount:        pay.Amount,
			ProcessingFee: pay.ProcessingFee,
			Status:        pay.Status,
			PaymentMethod: pay.PaymentMethod,
		})
	}
	return accounting.Dataset{Rows: rows}, nil
}

func (p *Projector) payouts(ctx context.Context, window accounting.DateRange) (accounting.Dataset, error) {
	payouts, err := p.ledger.Payouts(ctx, window)
	if err != nil {
		return accounting.Dataset{}, fmt.Errorf("payouts: %w", err)
	}
	rows := make([]accounting.Row, 0, len(payouts))
	for _, po := range payouts {
		rows = append(rows, accounting.PayoutRow{
			PayoutID:        po.ID,
			Date:            po.CreatedAt,
			CreatorUsername: po.CreatorUsername,
			CreatorEmail:    po.CreatorEmail,
			Amount:          po.Amount,
			Status:          po.Status,
			Method:          po.Method,
			CompletedAt:     po.CompletedAt,
		})
	}
	return accounting.Dataset{Rows: rows}, nil
}
