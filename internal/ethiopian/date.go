// Package ethiopian converts dates between the Ethiopian and the proleptic
// Gregorian calendars through Julian Day Numbers.
//
// The Ethiopian year has twelve 30-day months followed by Pagume, which has
// five days in a common year and six in a leap year. All values are immutable:
// every conversion returns a new value and never modifies its receiver.
package ethiopian

import (
	"fmt"
	"regexp"
	"strconv"
)

// Month numbers of the Ethiopian calendar.
const (
	Meskerem = iota + 1
	Tikimt
	Hidar
	Tahsas
	Tir
	Yekatit
	Megabit
	Miyazya
	Ginbot
	Sene
	Hamle
	Nehase
	Pagume
)

var monthNames = [...]string{
	"Meskerem", "Tikimt", "Hidar", "Tahsas", "Tir", "Yekatit", "Megabit",
	"Miyazya", "Ginbot", "Sene", "Hamle", "Nehase", "Pagume",
}

// MonthName returns the transliterated name of an Ethiopian month, or an
// empty string for a month outside 1..13.
func MonthName(month int) string {
	if month < Meskerem || month > Pagume {
		return ""
	}
	return monthNames[month-1]
}

// Date is a day of the Ethiopian calendar.
type Date struct {
	Year  int
	Month int // 1 (Meskerem) to 13 (Pagume)
	Day   int
}

// New returns the Ethiopian date for the given fields, or an error if the
// fields do not name an existing day.
func New(year, month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// DaysInMonth returns the number of days of an Ethiopian month, or 0 if the
// month does not exist.
func DaysInMonth(year, month int) int {
	switch {
	case month >= Meskerem && month < Pagume:
		return daysPerMonth
	case month == Pagume && IsLeap(year):
		return 6
	case month == Pagume:
		return 5
	}
	return 0
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return daysPerCommonYear + 1
	}
	return daysPerCommonYear
}

// Validate checks the month and day against the calendar rules and the year
// against the supported domain.
func (d Date) Validate() error {
	if d.Year < 1 || d.Year > MaxYear {
		return fmt.Errorf("%w: Ethiopian year %d is outside 1-%d", ErrOutOfRange, d.Year, MaxYear)
	}
	if d.Month < Meskerem || d.Month > Pagume {
		return fmt.Errorf("%w: Ethiopian month %d is outside 1-13", ErrInvalidDate, d.Month)
	}
	if n := DaysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > n {
		return fmt.Errorf("%w: day %d is outside 1-%d for %04d-%02d", ErrInvalidDate, d.Day, n, d.Year, d.Month)
	}
	return nil
}

// IsLeap reports whether the year of d is an Ethiopian leap year.
func (d Date) IsLeap() bool {
	return IsLeap(d.Year)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Gregorian is the method form of ToGregorian.
func (d Date) Gregorian() (GregorianDate, error) {
	return ToGregorian(d)
}

// AddDays is the method form of AddDays.
func (d Date) AddDays(n int) (Date, error) {
	return AddDays(d, n)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o in calendar order.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	}
	return sign(d.Day - o.Day)
}

// Before reports whether d precedes o.
func (d Date) Before(o Date) bool {
	return d.Compare(o) < 0
}

// Sub returns the number of days from o to d.
func (d Date) Sub(o Date) (int, error) {
	a, err := toJDN(d)
	if err != nil {
		return 0, err
	}
	b, err := toJDN(o)
	if err != nil {
		return 0, err
	}
	return a - b, nil
}

// AnniversaryIn returns the same month and day in another Ethiopian year.
// Pagume 6 falls back to Pagume 5 when the target year is not a leap year.
func (d Date) AnniversaryIn(year int) (Date, error) {
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	a := Date{Year: year, Month: d.Month, Day: d.Day}
	if a.Month == Pagume && a.Day > DaysInMonth(year, Pagume) {
		a.Day = DaysInMonth(year, Pagume)
	}
	if err := a.Validate(); err != nil {
		return Date{}, err
	}
	return a, nil
}

var isoDateRe = regexp.MustCompile(`^(\d{1,7})-(\d{1,2})-(\d{1,2})$`)

// parseFields splits a YYYY-MM-DD string into its three integers.
func parseFields(val string) (year, month, day int, err error) {
	m := isoDateRe.FindStringSubmatch(val)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: %q is not of the form YYYY-MM-DD", ErrInvalidDate, val)
	}
	// The regular expression guarantees short, all-digit fields.
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	day, _ = strconv.Atoi(m[3])
	return year, month, day, nil
}

// Parse parses an Ethiopian date in the form YYYY-MM-DD.
func Parse(val string) (Date, error) {
	y, m, d, err := parseFields(val)
	if err != nil {
		return Date{}, err
	}
	return New(y, m, d)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
