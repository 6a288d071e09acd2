package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/ethiopian"
)

// Clock abstracts time.Now() to allow deterministic testing.
// It is used by the Generator and by Today to determine the current date.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the current Ethiopian date according to clock, using the
// calendar date of the clock's own location.
func Today(clock Clock) (ethiopian.Date, error) {
	d, err := ethiopian.ToEthiopian(ethiopian.FromTime(clock.Now()))
	if err != nil {
		return ethiopian.Date{}, fmt.Errorf("%s: %w", config.ErrToday, err)
	}
	return d, nil
}
