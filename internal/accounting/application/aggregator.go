package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	accounting "oliver-admin/internal/accounting/domain"
	"oliver-admin/internal/logging"
	"oliver-admin/internal/observability/metrics"
)

// SummaryQuery selects a summary window.
type SummaryQuery struct {
	Period accounting.Period
	Year   int
	// Month is 1..12, or 0 when absent.
	Month int
}

// SummaryService computes financial summaries from the ledger.
type SummaryService struct {
	ledger accounting.LedgerReader
	rate   decimal.Decimal
	loc    *time.Location
}

// NewSummaryService constructs a SummaryService.
func NewSummaryService(ledger accounting.LedgerReader, rate decimal.Decimal, loc *time.Location) (*SummaryService, error) {
	if ledger == nil {
		return nil, errors.New("summary service: nil ledger")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryService{ledger: ledger, rate: rate, loc: loc}, nil
}

// Summary aggregates revenue, fees, payouts and the category breakdown for
// the query window. Operating costs are not tracked yet and count as zero.
func (s *SummaryService) Summary(ctx context.Context, q SummaryQuery) (accounting.Summary, error) {
	start := time.Now()
	summary, err := s.summary(ctx, q)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveSummary(result, time.Since(start))
	return summary, err
}

func (s *SummaryService) summary(ctx context.Context, q SummaryQuery) (accounting.Summary, error) {
	window, err := accounting.RangeFor(q.Period, q.Year, q.Month, s.loc)
	if err != nil {
		return accounting.Summary{}, err
	}

	var totals accounting.Totals
	var breakdown accounting.Breakdown
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totals.Revenue, err = s.ledger.SumRevenue(gctx, window, accounting.RevenueTypes)
		return err
	})
	g.Go(func() (err error) {
		totals.Fees, err = s.ledger.SumFees(gctx, window)
		return err
	})
	g.Go(func() (err error) {
		totals.Payouts, err = s.ledger.SumPayouts(gctx, window)
		return err
	})
	categories := []struct {
		paymentType accounting.PaymentType
		dst         *int64
	}{
		{accounting.PaymentSubscription, &breakdown.Subscriptions},
		{accounting.PaymentPPV, &breakdown.PPV},
		{accounting.PaymentTip, &breakdown.Tips},
		{accounting.PaymentMarketplace, &breakdown.Marketplace},
	}
	for _, c := range categories {
		g.Go(func() (err error) {
			*c.dst, err = s.ledger.SumByType(gctx, window, c.paymentType)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return accounting.Summary{}, err
	}

	summary := accounting.NewSummary(q.Period, q.Year, q.Month, window, totals, breakdown, s.rate)
	logging.Ctx(ctx).Debug().
		Str("period", string(q.Period)).
		Int("year", q.Year).
		Int("month", q.Month).
		Int64("revenue", summary.TotalRevenue).
		Msg("accounting summary generated")
	return summary, nil
}
