package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	accounting "oliver-admin/internal/accounting/domain"
)

const euroSign = "€"

// FormatEuros renders minor units as a fixed two-decimal amount.
func FormatEuros(cents int64) string {
	return decimalEuros(cents).StringFixed(2)
}

func decimalEuros(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseEuros reads an amount produced by FormatEuros, with or without the
// euro sign, back to minor units.
func ParseEuros(value string) (int64, error) {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), euroSign))
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("render: sub-cent amount %q", value)
	}
	return cents.IntPart(), nil
}

// cellText is the plain text of a field for tabular formats.
func cellText(f accounting.Field) string {
	if f.Kind == accounting.KindMoney {
		return FormatEuros(f.Cents)
	}
	return f.Text
}

// Humanize turns a camelCase key into a title: "totalRevenue" -> "Total Revenue".
func Humanize(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
