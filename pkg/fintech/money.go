package fintech

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a backend amount string into a decimal. Commas are
// tolerated on input since some endpoints echo formatted values back.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders a decimal as a display amount with two decimal
// places and thousands grouping: 4500 -> "4,500.00".
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)

	return b.String()
}

// FormatMoney parses and formats in one step. Unparseable input yields
// ZeroBalance so display code never sees garbage.
func FormatMoney(raw string) (string, bool) {
	d, ok := ParseAmount(raw)
	if !ok {
		return ZeroBalance, false
	}
	return FormatAmount(d), true
}
