package ethiopian

import "fmt"

// YearDays returns every day of an Ethiopian year in calendar order.
func YearDays(year int) ([]Date, error) {
	first, err := New(year, Meskerem, 1)
	if err != nil {
		return nil, err
	}
	days := make([]Date, 0, DaysInYear(year))
	for m := Meskerem; m <= Pagume; m++ {
		days = appendMonth(days, first.Year, m)
	}
	return days, nil
}

// MonthDays returns every day of an Ethiopian month in calendar order.
func MonthDays(year, month int) ([]Date, error) {
	if _, err := New(year, month, 1); err != nil {
		return nil, fmt.Errorf("month %d of %d: %w", month, year, err)
	}
	return appendMonth(make([]Date, 0, DaysInMonth(year, month)), year, month), nil
}

func appendMonth(days []Date, year, month int) []Date {
	for d := 1; d <= DaysInMonth(year, month); d++ {
		days = append(days, Date{Year: year, Month: month, Day: d})
	}
	return days
}
