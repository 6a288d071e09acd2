package ethiopian

import (
	"fmt"
	"time"
)

// GregorianDate is a day of the proleptic Gregorian calendar.
type GregorianDate struct {
	Year  int
	Month int // 1 (January) to 12 (December)
	Day   int
}

// NewGregorian returns the Gregorian date for the given fields, or an error if
// the fields do not name an existing day.
func NewGregorian(year, month, day int) (GregorianDate, error) {
	g := GregorianDate{Year: year, Month: month, Day: day}
	if err := g.Validate(); err != nil {
		return GregorianDate{}, err
	}
	return g, nil
}

// FromTime returns the Gregorian date of t in t's own location.
func FromTime(t time.Time) GregorianDate {
	y, m, d := t.Date()
	return GregorianDate{Year: y, Month: int(m), Day: d}
}

// IsGregorianLeap reports whether February has 29 days in the given year.
func IsGregorianLeap(year int) bool {
	return floorMod(year, 4) == 0 && (floorMod(year, 100) != 0 || floorMod(year, 400) == 0)
}

// DaysInGregorianMonth returns the length of a Gregorian month, or 0 if the
// month does not exist.
func DaysInGregorianMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsGregorianLeap(year) {
			return 29
		}
		return 28
	}
	return 0
}

// Validate checks the month and day against the proleptic Gregorian rules.
func (g GregorianDate) Validate() error {
	if g.Month < 1 || g.Month > 12 {
		return fmt.Errorf("%w: Gregorian month %d is outside 1-12", ErrInvalidDate, g.Month)
	}
	if n := DaysInGregorianMonth(g.Year, g.Month); g.Day < 1 || g.Day > n {
		return fmt.Errorf("%w: day %d is outside 1-%d for %04d-%02d", ErrInvalidDate, g.Day, n, g.Year, g.Month)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (g GregorianDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", g.Year, g.Month, g.Day)
}

// Time returns midnight UTC of the date.
func (g GregorianDate) Time() time.Time {
	return g.In(time.UTC)
}

// In returns midnight of the date in loc.
func (g GregorianDate) In(loc *time.Location) time.Time {
	return time.Date(g.Year, time.Month(g.Month), g.Day, 0, 0, 0, 0, loc)
}

// Ethiopian is the method form of ToEthiopian.
func (g GregorianDate) Ethiopian() (Date, error) {
	return ToEthiopian(g)
}

// ParseGregorian parses a Gregorian date in the form YYYY-MM-DD.
func ParseGregorian(val string) (GregorianDate, error) {
	y, m, d, err := parseFields(val)
	if err != nil {
		return GregorianDate{}, err
	}
	return NewGregorian(y, m, d)
}
