// Package date provides a calendar date type with day granularity.
//
// Price feeds deliver dates in several shapes (epoch timestamps from the
// chart API, "02-Jan-06" strings in stored records, "01/02/2006" in purchase
// files). Everything is normalized to Date at the boundary so that comparisons
// downstream never depend on the source format.
package date

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format is the canonical ISO-8601 representation used for storage and output.
const Format = "2006-01-02"

const day = 24 * time.Hour

// layouts accepted by Parse, tried in order.
var layouts = []string{
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-06",
	"2-Jan-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ErrInvalid is returned (wrapped) by Parse and Scan for values that do not
// denote a calendar date.
var ErrInvalid = errors.New("invalid date")

// Date is a calendar day. The zero value is not a valid date; see IsZero.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date, so New(2024, 1, 32) is 2024-02-01.
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) Date { return New(t.Date()) }

// FromUnix converts a UNIX timestamp to the calendar day observed at the given
// UTC offset (in seconds). Exchanges report the trading day in local time, so
// a bar stamped 13:30 UTC for a -05:00 exchange is still that same day.
func FromUnix(ts int64, utcOffset int) Date {
	zone := time.UTC
	if utcOffset != 0 {
		zone = time.FixedZone("", utcOffset)
	}
	return FromTime(time.Unix(ts, 0).In(zone))
}

// Today returns the current local date.
func Today() Date { return FromTime(time.Now()) }

// Parse reads a date in any of the supported textual layouts.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalid, s)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Add returns the date i days later (earlier when i is negative).
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(x Date) int {
	switch {
	case d.y != x.y:
		return cmp(d.y, x.y)
	case d.m != x.m:
		return cmp(int(d.m), int(x.m))
	default:
		return cmp(d.d, x.d)
	}
}

// DaysSince returns the signed number of whole days from x to d, so
// yesterday.DaysSince(today) is -1.
func (d Date) DaysSince(x Date) int {
	return int(d.Time().Sub(x.Time()) / day)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(Format)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as ISO text.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan accepts the text written by Value, and time values some drivers return.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalid, src)
	}
}

func (d *Date) scanString(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
	_ driver.Valuer    = Date{}
)
