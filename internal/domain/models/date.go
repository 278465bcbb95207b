package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/partstock/pkg/format"
)

// Date is a calendar day without a time component. It serializes as YYYY-MM-DD
// and accepts DD/MM/YYYY on input so values copied from labels still parse.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location, returned as UTC midnight.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ISO and day-first layouts.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, nil
	}
	if t, err := format.ParseISODate(value); err == nil {
		return NewDate(t), nil
	}
	if t, err := format.ParseDisplayDate(value); err == nil {
		return NewDate(t), nil
	}
	return Date{}, fmt.Errorf("unsupported date %q", value)
}

// String returns the canonical ISO form.
func (d Date) String() string {
	return format.ISODate(d.Time)
}

// Display returns the DD/MM/YYYY form used on labels and exports.
func (d Date) Display() string {
	return format.DisplayDate(d.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
