package domain

import (
	"fmt"
	"time"
)

// LogLayout is the gateway's on-disk timestamp format (YYYY:MM:DD-hh:mm:ss).
const LogLayout = "2006:01:02-15:04:05"

// SQLLayout is the layout used when a timestamp is persisted as text.
const SQLLayout = "2006-01-02 15:04:05"

// Timestamp is a naive, gateway-local calendar instant with second precision.
//
// It carries no timezone. The zero value is not a valid log timestamp.
type Timestamp struct {
	t time.Time
}

// NewTimestamp builds a Timestamp, rejecting any field outside its calendar
// range. Values are never normalised: Feb 30 is an error, not Mar 2.
func NewTimestamp(year, month, day, hour, minute, second int) (Timestamp, error) {
	if month < 1 || month > 12 {
		return Timestamp{}, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > DaysIn(year, time.Month(month)) {
		return Timestamp{}, fmt.Errorf("day %d out of range for %04d-%02d", day, year, month)
	}
	if hour < 0 || hour > 23 {
		return Timestamp{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return Timestamp{}, fmt.Errorf("minute %d out of range", minute)
	}
	if second < 0 || second > 59 {
		return Timestamp{}, fmt.Errorf("second %d out of range", second)
	}
	return Timestamp{t: time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)}, nil
}

// MustTimestamp is NewTimestamp for literals known to be valid.
func MustTimestamp(year, month, day, hour, minute, second int) Timestamp {
	ts, err := NewTimestamp(year, month, day, hour, minute, second)
	if err != nil {
		panic(err)
	}
	return ts
}

// DaysIn returns the number of days of month m in year y (leap-year aware).
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (ts Timestamp) Year() int         { return ts.t.Year() }
func (ts Timestamp) Month() time.Month { return ts.t.Month() }
func (ts Timestamp) Day() int          { return ts.t.Day() }
func (ts Timestamp) Hour() int         { return ts.t.Hour() }
func (ts Timestamp) Minute() int       { return ts.t.Minute() }
func (ts Timestamp) Second() int       { return ts.t.Second() }

// IsZero reports whether ts was never set.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// Equal reports whether both timestamps denote the same second.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// Compare returns -1, 0 or +1.
func (ts Timestamp) Compare(other Timestamp) int { return ts.t.Compare(other.t) }

// Unix returns the seconds since epoch, reading the naive value as UTC.
func (ts Timestamp) Unix() int64 { return ts.t.Unix() }

// String formats ts in the gateway log layout.
func (ts Timestamp) String() string { return ts.t.Format(LogLayout) }

// SQL formats ts for text columns.
func (ts Timestamp) SQL() string { return ts.t.Format(SQLLayout) }

func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(ts.String()), nil
}

func (ts *Timestamp) UnmarshalText(b []byte) error {
	t, err := time.ParseInLocation(LogLayout, string(b), time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", b, err)
	}
	ts.t = t
	return nil
}
