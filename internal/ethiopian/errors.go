package ethiopian

import "errors"

// Sentinel errors returned by every conversion. They are always wrapped with
// the offending value, so callers should test them with errors.Is.
var (
	// ErrInvalidDate reports a month or day that does not exist in the calendar
	// (Ethiopian month 14, Pagume 6 in a common year, 30 February, ...).
	ErrInvalidDate = errors.New("invalid date")

	// ErrOutOfRange reports a date or day number outside the supported domain,
	// most commonly a Gregorian date before the Ethiopian epoch.
	ErrOutOfRange = errors.New("date out of range")
)
