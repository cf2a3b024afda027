package memory

import (
	"context"
	"sort"
	"sync"

	accounting "oliver-admin/internal/accounting/domain"
)

// Ledger is an in-memory payments and payouts store for demo/testing.
type Ledger struct {
	mu       sync.RWMutex
	payments []accounting.Payment
	payouts  []accounting.Payout
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// AddPayment appends a payment.
func (l *Ledger) AddPayment(p accounting.Payment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payments = append(l.payments, p)
}

// AddPayout appends a payout.
func (l *Ledger) AddPayout(p accounting.Payout) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payouts = append(l.payouts, p)
}

// SumRevenue totals successful payments of the given types in window.
func (l *Ledger) SumRevenue(_ context.Context, window accounting.DateRange, types []accounting.PaymentType) (int64, error) {
	allowed := make(map[accounting.PaymentType]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total int64
	for _, p := range l.payments {
		if _, ok := allowed[p.Type]; !ok {
			continue
		}
		if p.Status == accounting.PaymentSucceeded && window.Contains(p.CreatedAt) {
			total += p.Amount
		}
	}
	return total, nil
}

// SumFees totals processing fees of successful payments in window.
func (l *Ledger) SumFees(_ context.Context, window accounting.DateRange) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total int64
	for _, p := range l.payments {
		if p.Status == accounting.PaymentSucceeded && window.Contains(p.CreatedAt) {
			total += p.ProcessingFee
		}
	}
	return total, nil
}

// SumPayouts totals completed payouts by completion time.
func (l *Ledger) SumPayouts(_ context.Context, window accounting.DateRange) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total int64
	for _, p := range l.payouts {
		if p.Status == accounting.PayoutCompleted && p.CompletedAt != nil && window.Contains(*p.CompletedAt) {
			total += p.Amount
		}
	}
	return total, nil
}

// SumByType totals successful payments of one type in window.
func (l *Ledger) SumByType(ctx context.Context, window accounting.DateRange, paymentType accounting.PaymentType) (int64, error) {
	return l.SumRevenue(ctx, window, []accounting.PaymentType{paymentType})
}

// Payments lists payments created in window, newest first.
func (l *Ledger) Payments(_ context.Context, window accounting.DateRange, status string) ([]accounting.Payment, error) {
	l.mu.RLock()
	var out []accounting.Payment
	for _, p := range l.payments {
		if status != "" && p.Status != status {
			continue
		}
		if window.Contains(p.CreatedAt) {
			out = append(out, p)
		}
	}
	l.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Payouts lists payouts created in window, newest first.
func (l *Ledger) Payouts(_ context.Context, window accounting.DateRange) ([]accounting.Payout, error) {
	l.mu.RLock()
	var out []accounting.Payout
	for _, p := range l.payouts {
		if window.Contains(p.CreatedAt) {
			out = append(out, p)
		}
	}
	l.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
