package core

import (
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the wire and storage form of a Month: the first day of the month.
const MonthLayout = "2006-01-02"

var monthInputLayouts = []string{
	MonthLayout,
	"2006-01",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// Month is a calendar month. The embedded time is always midnight UTC on day 1.
type Month struct {
	time.Time
}

// NewMonth creates a Month for the given year and month.
func NewMonth(year int, month time.Month) Month {
	return Month{Time: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// MonthOf truncates t to the month it falls in.
func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

// ParseMonth accepts "YYYY-MM", "YYYY-MM-DD" and date-time forms; the day is dropped.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, fmt.Errorf("%w: empty month", ErrMalformedInput)
	}
	for _, layout := range monthInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("%w: invalid month %q", ErrMalformedInput, s)
}

// Compare returns -1, 0 or +1 depending on whether m is before, equal to or after o.
func (m Month) Compare(o Month) int {
	return m.Time.Compare(o.Time)
}

// String returns the month as "YYYY-MM".
func (m Month) String() string {
	return m.Format("2006-01")
}

func (m Month) Validate() error {
	if m.IsZero() {
		return fmt.Errorf("%w: month cannot be zero", ErrMalformedInput)
	}
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Format(MonthLayout) + `"`), nil
}

func (m *Month) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*m = Month{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: month must be a string", ErrMalformedInput)
	}
	parsed, err := ParseMonth(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
