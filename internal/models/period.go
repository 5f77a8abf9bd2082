package models

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Period identifies a calendar month. Its text form is "YYYY-MM".
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a "YYYY-MM" period key.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 7 || s[4] != '-' {
		return Period{}, Invalid("period", fmt.Errorf("%w: %q", ErrInvalidPeriod, s))
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, Invalid("period", fmt.Errorf("%w: %q", ErrInvalidPeriod, s))
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period a calendar date falls in.
func PeriodOf(d civil.Date) Period {
	return Period{Year: d.Year, Month: d.Month}
}

// CurrentPeriod returns the period containing now in UTC.
func CurrentPeriod(now time.Time) Period {
	now = now.UTC()
	return Period{Year: now.Year(), Month: now.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Valid reports whether p names a real month.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// Prev returns the month before p. January wraps to December of the previous year.
func (p Period) Prev() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether d falls inside p.
func (p Period) Contains(d civil.Date) bool {
	return d.Year == p.Year && d.Month == p.Month
}

// FirstDay returns the first calendar day of p.
func (p Period) FirstDay() civil.Date {
	return civil.Date{Year: p.Year, Month: p.Month, Day: 1}
}

// LastDay returns the last calendar day of p.
func (p Period) LastDay() civil.Date {
	// Day 0 of the next month normalizes to the last day of this one.
	return civil.DateOf(time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC))
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty string yields the zero Period.
func (p *Period) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
