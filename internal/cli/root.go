// Package cli implements the ethiocal command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/engine"
	"github.com/tartampluch/go-ethiocal/internal/locale"
)

// Options carries the dependencies injected by main.
type Options struct {
	// Clock drives the today command. Defaults to engine.RealClock.
	Clock engine.Clock

	// SetupLogging is called once flags are parsed, before any command runs.
	SetupLogging func(debug bool)
}

// globalFlags holds the values of flags shared by several commands.
type globalFlags struct {
	debug      bool
	configPath string
	lang       string
	json       bool
}

type app struct {
	opts  Options
	flags globalFlags
}

// NewRootCommand builds the full command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Clock == nil {
		opts.Clock = engine.RealClock{}
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   config.CommandName,
		Short: "Convert dates between the Ethiopian and Gregorian calendars",
		Long: `ethiocal converts dates between the Ethiopian and the proleptic Gregorian
calendars through Julian Day Numbers, and can serve an iCalendar feed of
birthdays celebrated on the Ethiopian calendar.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a.opts.SetupLogging != nil {
				a.opts.SetupLogging(a.flags.debug)
			}
			slog.Debug(config.MsgCommandRun,
				config.LogKeyComponent, config.CompCLI,
				config.LogKeyCommand, cmd.CommandPath())
		},
	}

	root.PersistentFlags().BoolVar(&a.flags.debug, config.FlagDebug, false, config.FlagDescDebug)
	root.PersistentFlags().StringVar(&a.flags.configPath, config.FlagConfig, "", config.FlagDescConfig)
	root.PersistentFlags().StringVar(&a.flags.lang, config.FlagLang, config.DefaultLanguage, config.FlagDescLang)

	root.AddCommand(
		a.newToGregorianCmd(),
		a.newToEthiopianCmd(),
		a.newAddCmd(),
		a.newTodayCmd(),
		a.newLeapCmd(),
		a.newYearCmd(),
		a.newServeCmd(),
		a.newVersionCmd(),
	)
	return root
}

func (a *app) addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.flags.json, config.FlagJSON, false, config.FlagDescJSON)
}

func (a *app) catalog() (*locale.Catalog, error) {
	return locale.NewCatalog(a.flags.lang)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrArgYear, err)
	}
	return year, nil
}
