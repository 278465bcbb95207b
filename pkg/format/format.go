// Package format holds the display conversions shared by reports, chat replies and exports.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DisplayDateLayout is the day-first layout printed on labels and reports.
	DisplayDateLayout = "02/01/2006"
	// ISODateLayout is the canonical storage layout.
	ISODateLayout = "2006-01-02"

	pesoSign = "₱"
)

// Number groups the integer part of n with commas, e.g. 1234567 -> "1,234,567".
func Number(n int64) string {
	return groupDigits(strconv.FormatInt(n, 10))
}

// Peso renders amount with the peso sign, two decimals and thousands separators.
func Peso(amount decimal.Decimal) string {
	return pesoSign + groupDigits(amount.StringFixed(2))
}

// Decimal renders amount with two decimals and thousands separators, without a currency sign.
func Decimal(amount decimal.Decimal) string {
	return groupDigits(amount.StringFixed(2))
}

func groupDigits(raw string) string {
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign = "-"
		raw = raw[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(raw, ".")
	if len(intPart) <= 3 {
		if hasFrac {
			return sign + intPart + "." + fracPart
		}
		return sign + intPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	out := sign + b.String()
	if hasFrac {
		out += "." + fracPart
	}
	return out
}

// DisplayDate formats t as DD/MM/YYYY.
func DisplayDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// ParseDisplayDate parses a DD/MM/YYYY string. Single digit days and months are accepted.
func ParseDisplayDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{DisplayDateLayout, "2/1/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse display date %q", value)
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ISODateLayout)
}

// ParseISODate parses a YYYY-MM-DD string, ignoring any trailing time component.
func ParseISODate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(ISODateLayout) {
		value = value[:len(ISODateLayout)]
	}
	t, err := time.Parse(ISODateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso date %q: %w", value, err)
	}
	return t, nil
}

// DisplayToISO converts DD/MM/YYYY to YYYY-MM-DD.
func DisplayToISO(value string) (string, error) {
	t, err := ParseDisplayDate(value)
	if err != nil {
		return "", err
	}
	return ISODate(t), nil
}

// RelativeTime describes how long before now t happened.
// Anything older than 30 days falls back to an unpadded D/M/YYYY date.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	seconds := int(diff / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return "Just now"
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	case days < 30:
		return plural(days, "day") + " ago"
	default:
		return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
	}
}

// SignedUnits renders a quantity delta such as "+15 units" or "-2 units".
func SignedUnits(delta int) string {
	if delta < 0 {
		return fmt.Sprintf("-%s units", Number(int64(-delta)))
	}
	return fmt.Sprintf("+%s units", Number(int64(delta)))
}

// UnitsRemaining renders the low-stock suffix, e.g. "3 units remaining".
func UnitsRemaining(n int) string {
	return fmt.Sprintf("%s units remaining", Number(int64(n)))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
