package ethiopian

import "fmt"

// maxGregorianYear bounds Gregorian input before any arithmetic runs.
// The Ethiopian year is a quarter day longer than the Gregorian one, so the
// calendars drift apart: the last day of MaxYear falls in Gregorian year
// MaxYear+29. The exact limit is enforced by fromJDN.
const maxGregorianYear = MaxYear + 30

// ToGregorian converts an Ethiopian date to the proleptic Gregorian calendar.
func ToGregorian(d Date) (GregorianDate, error) {
	jdn, err := toJDN(d)
	if err != nil {
		return GregorianDate{}, err
	}
	return jdnToGregorian(jdn), nil
}

// ToEthiopian converts a proleptic Gregorian date to the Ethiopian calendar.
// Dates before 27 August 8 AD (1 Meskerem 1 E.C.) return ErrOutOfRange.
func ToEthiopian(g GregorianDate) (Date, error) {
	if err := g.Validate(); err != nil {
		return Date{}, err
	}
	if g.Year < 1 || g.Year > maxGregorianYear {
		return Date{}, fmt.Errorf("%w: Gregorian year %d is outside 1-%d", ErrOutOfRange, g.Year, maxGregorianYear)
	}
	jdn, err := gregorianToJDN(g)
	if err != nil {
		return Date{}, err
	}
	return fromJDN(jdn)
}

// AddDays offsets an Ethiopian date by n days, which may be negative.
// The arithmetic runs on day numbers, so month and year boundaries (Pagume
// included) need no special handling.
func AddDays(d Date, n int) (Date, error) {
	jdn, err := toJDN(d)
	if err != nil {
		return Date{}, err
	}
	return fromJDN(jdn + n)
}
