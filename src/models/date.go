package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/username/settlementdash/backend/src/utils"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day. The zero value is a null date:
// the source had no value or it could not be parsed.
type Date struct {
	t time.Time
}

// NewDate builds a date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the wall-clock calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts every layout the settlement exports are known to use.
// Unparsable input yields a null date instead of an error.
func ParseDate(s string) Date {
	t, ok := utils.ParseDate(s)
	if !ok {
		return Date{}
	}
	return DateOf(t)
}

func (d Date) IsNull() bool { return d.t.IsZero() }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

func (d Date) AddDays(n int) Date {
	if d.IsNull() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// String renders the date as YYYY-MM-DD, or "" when null.
func (d Date) String() string {
	if d.IsNull() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsNull() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseDate(s)
	return nil
}

// Value stores null dates as SQL NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsNull() {
		return nil, nil
	}
	return d.String(), nil
}

// MinDate returns the earlier of two dates, ignoring null ones.
func MinDate(a, b Date) Date {
	if a.IsNull() || (!b.IsNull() && b.Before(a)) {
		return b
	}
	return a
}

// MaxDate returns the later of two dates, ignoring null ones.
func MaxDate(a, b Date) Date {
	if a.IsNull() || (!b.IsNull() && b.After(a)) {
		return b
	}
	return a
}
