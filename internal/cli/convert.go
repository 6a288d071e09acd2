package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/engine"
	"github.com/tartampluch/go-ethiocal/internal/ethiopian"
	"github.com/tartampluch/go-ethiocal/internal/server"
)

func (a *app) newToGregorianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-gregorian " + config.DateLayoutUsage,
		Short: "Convert an Ethiopian date to the Gregorian calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ethiopian.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			g, err := ethiopian.ToGregorian(e)
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			return a.printConversion(cmd, e.String(), g.String(), server.NewConversion(e, g))
		},
	}
	a.addJSONFlag(cmd)
	return cmd
}

func (a *app) newToEthiopianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "to-ethiopian " + config.DateLayoutUsage,
		Short: "Convert a Gregorian date to the Ethiopian calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := ethiopian.ParseGregorian(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			e, err := ethiopian.ToEthiopian(g)
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			return a.printConversion(cmd, g.String(), e.String(), server.NewConversion(e, g))
		},
	}
	a.addJSONFlag(cmd)
	return cmd
}

func (a *app) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add " + config.DateLayoutUsage + " DAYS",
		Short:   "Add a signed number of days to an Ethiopian date",
		Example: "  ethiocal add 2016-01-01 365\n  ethiocal add 2016-01-01 -- -1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ethiopian.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrArgDays, err)
			}
			res, err := ethiopian.AddDays(e, n)
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			g, err := res.Gregorian()
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrConversion, err)
			}
			return a.printConversion(cmd, e.String(), res.String(), server.NewConversion(res, g))
		},
	}
	a.addJSONFlag(cmd)
	return cmd
}

func (a *app) newTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print today's date on both calendars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today, err := engine.Today(a.opts.Clock)
			if err != nil {
				return err
			}
			g, err := today.Gregorian()
			if err != nil {
				return fmt.Errorf("%s: %w", config.ErrToday, err)
			}
			if a.flags.json {
				return printJSON(cmd, server.NewConversion(today, g))
			}

			cat, err := a.catalog()
			if err != nil {
				return err
			}
			cmd.Println(cat.Msg(config.TKeyToday, map[string]any{
				"Ethiopian": today.String(),
				"Gregorian": g.String(),
			}))
			return nil
		},
	}
	a.addJSONFlag(cmd)
	return cmd
}

func (a *app) printConversion(cmd *cobra.Command, from, to string, conv server.Conversion) error {
	if a.flags.json {
		return printJSON(cmd, conv)
	}
	cat, err := a.catalog()
	if err != nil {
		return err
	}
	cmd.Println(cat.Msg(config.TKeyConversion, map[string]any{"From": from, "To": to}))
	return nil
}
