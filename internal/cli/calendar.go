package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/ethiopian"
)

const dayLineFormat = "%s  %-9s  %s\n"

func (a *app) newLeapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leap YEAR",
		Short: "Tell whether an Ethiopian year is a leap year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			cat, err := a.catalog()
			if err != nil {
				return err
			}

			key := config.TKeyLeapNo
			if ethiopian.IsLeap(year) {
				key = config.TKeyLeapYes
			}
			cmd.Println(cat.Msg(key, map[string]any{"Year": year}))
			return nil
		},
	}
}

func (a *app) newYearCmd() *cobra.Command {
	var month int
	cmd := &cobra.Command{
		Use:   "year YEAR",
		Short: "List the days of an Ethiopian year with their Gregorian dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}

			var days []ethiopian.Date
			if month != 0 {
				days, err = ethiopian.MonthDays(year, month)
			} else {
				days, err = ethiopian.YearDays(year)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}

			cat, err := a.catalog()
			if err != nil {
				return err
			}
			cmd.Println(cat.Msg(config.TKeyYearHeader, map[string]any{
				"Year": year,
				"Days": ethiopian.DaysInYear(year),
			}))

			for _, d := range days {
				g, err := d.Gregorian()
				if err != nil {
					return fmt.Errorf("%s: %w", config.ErrConversion, err)
				}
				cmd.Printf(dayLineFormat, d, ethiopian.MonthName(d.Month), g)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&month, config.FlagMonth, 0, config.FlagDescMonth)
	return cmd
}
