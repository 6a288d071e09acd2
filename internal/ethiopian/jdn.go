package ethiopian

import "fmt"

// Epoch is the Julian Day Number of 1 Meskerem, year 1 E.C.
// It corresponds to 29 August 8 AD in the Julian calendar, which is
// 27 August 8 AD in the proleptic Gregorian calendar.
const Epoch = 1724221

// MaxYear is the last Ethiopian year accepted by the converters.
// It keeps every intermediate product of the Gregorian algorithms inside a 32-bit int.
const MaxYear = 1_000_000

const (
	daysPerMonth      = 30
	daysPerCommonYear = 365
	// A four-year cycle holds three common years followed by one leap year.
	daysPerCycle = 4*daysPerCommonYear + 1
	// Offset of the leap day (Pagume 6) inside a cycle.
	leapDayOffset = 4 * daysPerCommonYear
)

// IsLeap reports whether Pagume has six days in the given Ethiopian year.
// The leap year is the one whose New Year falls in the Gregorian September
// preceding a Gregorian leap February (2016 E.C. starts in September 2023).
func IsLeap(year int) bool {
	return floorMod(year, 4) == 0
}

// toJDN converts a validated Ethiopian date to its Julian Day Number.
func toJDN(d Date) (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	y := d.Year - 1
	return Epoch + daysPerCommonYear*y + floorDiv(y, 4) + daysPerMonth*(d.Month-1) + d.Day - 1, nil
}

// fromJDN decomposes a day number into four-year cycles, years, months and days.
// Month 13 needs no special case: its offsets 360..364 (365 in a leap year)
// naturally yield days 1..5 (1..6).
func fromJDN(jdn int) (Date, error) {
	if jdn < Epoch {
		return Date{}, fmt.Errorf("%w: julian day %d precedes the Ethiopian epoch", ErrOutOfRange, jdn)
	}
	offset := jdn - Epoch
	r := offset % daysPerCycle
	n := r%daysPerCommonYear + daysPerCommonYear*(r/leapDayOffset)
	d := Date{
		Year:  4*(offset/daysPerCycle) + r/daysPerCommonYear - r/leapDayOffset + 1,
		Month: n/daysPerMonth + 1,
		Day:   n%daysPerMonth + 1,
	}
	if d.Year > MaxYear {
		return Date{}, fmt.Errorf("%w: year %d is after %d", ErrOutOfRange, d.Year, MaxYear)
	}
	return d, nil
}

// gregorianToJDN implements the proleptic Gregorian to JDN astronomical algorithm.
// Floor division keeps it exact for years before 4801 BC as well.
func gregorianToJDN(g GregorianDate) (int, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	a := floorDiv(14-g.Month, 12)
	y := g.Year + 4800 - a
	m := g.Month + 12*a - 3
	return g.Day + floorDiv(153*m+2, 5) + 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - 32045, nil
}

// jdnToGregorian is the Fliegel-Van Flandern inverse of gregorianToJDN.
// Callers only pass day numbers >= Epoch, so every term is non-negative and
// truncating division equals floor division.
func jdnToGregorian(jdn int) GregorianDate {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	return GregorianDate{
		Year:  100*b + d - 4800 + m/10,
		Month: m + 3 - 12*(m/10),
		Day:   e - (153*m+2)/5 + 1,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - b*floorDiv(a, b)
}
