package accounting

import (
	"fmt"
	"time"
)

// FieldKind tells renderers how to format a value.
type FieldKind int

const (
	KindText FieldKind = iota
	KindMoney
)

// Field is one named cell of a row.
type Field struct {
	Key   string
	Kind  FieldKind
	Text  string
	Cents int64
}

func text(key, value string) Field {
	return Field{Key: key, Kind: KindText, Text: value}
}

func money(key string, cents int64) Field {
	return Field{Key: key, Kind: KindMoney, Cents: cents}
}

// Row is one record of an export dataset. Implemented only by the row types
// in this package.
type Row interface {
	exportRow()
}

// AccountingRow is a successful payment in the accounting export.
type AccountingRow struct {
	ID       string
	Date     time.Time
	Type     PaymentType
	Username string
	Amount   int64
	Status   string
}

// TransactionRow is a payment of any status in the transactions export.
type TransactionRow struct {
	TransactionID string
	Date          time.Time
	UserID        string
	Email         string
	Type          PaymentType
	Amount        int64
	ProcessingFee int64
	Status        string
	PaymentMethod string
}

// PayoutRow is a payout in the payouts export.
type PayoutRow struct {
	PayoutID        string
	Date            time.Time
	CreatorUsername string
	CreatorEmail    string
	Amount          int64
	Status          string
	Method          string
	CompletedAt     *time.Time
}

func (AccountingRow) exportRow()  {}
func (TransactionRow) exportRow() {}
func (PayoutRow) exportRow()      {}

// PendingLabel is shown for payouts that have not completed.
const PendingLabel = "Pending"

// Fields returns the ordered cells of a row.
func Fields(row Row) []Field {
	switch r := row.(type) {
	case AccountingRow:
		return []Field{
			text("id", r.ID),
			text("date", formatTime(r.Date)),
			text("type", string(r.Type)),
			text("username", r.Username),
			money("amount", r.Amount),
			text("status", r.Status),
		}
	case TransactionRow:
		return []Field{
			text("transactionId", r.TransactionID),
			text("date", formatTime(r.Date)),
			text("userId", r.UserID),
			text("email", r.Email),
			text("type", string(r.Type)),
			money("amount", r.Amount),
			money("processingFee", r.ProcessingFee),
			text("status", r.Status),
			text("paymentMethod", r.PaymentMethod),
		}
	case PayoutRow:
		completed := PendingLabel
		if r.CompletedAt != nil {
			completed = formatTime(*r.CompletedAt)
		}
		return []Field{
			text("payoutId", r.PayoutID),
			text("date", formatTime(r.Date)),
			text("creatorUsername", r.CreatorUsername),
			text("creatorEmail", r.CreatorEmail),
			money("amount", r.Amount),
			text("status", r.Status),
			text("method", r.Method),
			text("completedAt", completed),
		}
	default:
		panic(fmt.Sprintf("accounting: unknown row type %T", row))
	}
}

// Headers returns the field keys of a row.
func Headers(row Row) []string {
	fields := Fields(row)
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Dataset is the renderer input: an optional summary plus ordered rows.
type Dataset struct {
	Summary []Field
	Rows    []Row
}

// SummaryFields projects a summary to the fields shown in accounting exports.
func SummaryFields(s Summary) []Field {
	return []Field{
		money("totalRevenue", s.TotalRevenue),
		money("platformFees", s.PlatformFees),
		money("commission", s.Commission),
		money("netProfit", s.NetProfit),
	}
}
