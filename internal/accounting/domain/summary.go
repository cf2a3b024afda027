package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the platform share of gross revenue.
var DefaultCommissionRate = decimal.RequireFromString("0.15")

// Totals are the raw ledger aggregates for a window, in minor units.
type Totals struct {
	Revenue        int64
	Fees           int64
	Payouts        int64
	OperatingCosts int64
}

// Breakdown splits revenue by payment category, in minor units.
type Breakdown struct {
	Subscriptions int64 `json:"subscriptions"`
	PPV           int64 `json:"ppv"`
	Tips          int64 `json:"tips"`
	Marketplace   int64 `json:"marketplace"`
}

// Summary is the financial summary for one window.
type Summary struct {
	Period         Period
	Year           int
	Month          int
	Range          DateRange
	TotalRevenue   int64
	PlatformFees   int64
	Commission     int64
	TotalPayouts   int64
	OperatingCosts int64
	NetProfit      int64
	Breakdown      Breakdown
}

// Commission applies rate to revenue and rounds to the nearest minor unit.
func Commission(revenue int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(revenue).Mul(rate).Round(0).IntPart()
}

// NewSummary derives commission and net profit from totals.
// Net profit does not subtract payouts.
func NewSummary(period Period, year, month int, window DateRange, totals Totals, breakdown Breakdown, rate decimal.Decimal) Summary {
	commission := Commission(totals.Revenue, rate)
	return Summary{
		Period:         period,
		Year:           year,
		Month:          month,
		Range:          DateRange{Start: window.Start.UTC(), End: window.End.UTC()},
		TotalRevenue:   totals.Revenue,
		PlatformFees:   totals.Fees,
		Commission:     commission,
		TotalPayouts:   totals.Payouts,
		OperatingCosts: totals.OperatingCosts,
		NetProfit:      totals.Revenue - totals.Fees - commission - totals.OperatingCosts,
		Breakdown:      breakdown,
	}
}

// PaymentType classifies a payment.
type PaymentType string

const (
	PaymentSubscription PaymentType = "SUBSCRIPTION"
	PaymentPPV          PaymentType = "PPV"
	PaymentTip          PaymentType = "TIP"
	PaymentPurchase     PaymentType = "PURCHASE"
	PaymentMarketplace  PaymentType = "MARKETPLACE"
)

// RevenueTypes are the payment types counted as gross revenue.
var RevenueTypes = []PaymentType{PaymentSubscription, PaymentPPV, PaymentTip, PaymentPurchase}

const (
	// PaymentSucceeded is the only payment status that counts toward totals.
	PaymentSucceeded = "SUCCESS"
	// PayoutCompleted is the only payout status that counts toward totals.
	PayoutCompleted = "COMPLETED"
)

// Payment is a ledger payment joined with its payer.
type Payment struct {
	ID            string
	Amount        int64
	ProcessingFee int64
	Type          PaymentType
	Status        string
	PaymentMethod string
	CreatedAt     time.Time
	Username      string
	Email         string
}

// Payout is a ledger payout joined with its creator.
type Payout struct {
	ID              string
	Amount          int64
	Status          string
	Method          string
	CreatedAt       time.Time
	CompletedAt     *time.Time
	CreatorUsername string
	CreatorEmail    string
}
