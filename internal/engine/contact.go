package engine

import "github.com/tartampluch/go-ethiocal/internal/ethiopian"

// BirthdayEntry is a contact whose birthday is tracked on the Ethiopian calendar.
type BirthdayEntry struct {
	// UID is a unique identifier (hash) used for stability across refreshes.
	UID string

	// Name is the display name (Formatted Name or Structured Name).
	Name string

	// GregorianBirth is the BDAY value found in the vCard.
	GregorianBirth ethiopian.GregorianDate

	// EthiopianBirth is GregorianBirth converted to the Ethiopian calendar.
	EthiopianBirth ethiopian.Date

	// YearKnown indicates if the vCard contained a year or just --MM-DD.
	YearKnown bool

	// NextOccurrence is the next Ethiopian anniversary, today included.
	NextOccurrence ethiopian.Date

	// NextGregorian is NextOccurrence on the Gregorian calendar.
	NextGregorian ethiopian.GregorianDate

	// AgeNext is the age in Ethiopian years at NextOccurrence.
	// Only valid if YearKnown is true.
	AgeNext int
}
