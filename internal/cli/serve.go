package cli

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"github.com/tartampluch/go-ethiocal/internal/daemon"
	"github.com/tartampluch/go-ethiocal/internal/locale"
)

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve an iCalendar feed of Ethiopian-calendar birthdays",
		Long: `serve reads an address book (a local .vcf file or a CardDAV/WebDAV URL),
converts every birthday to the Ethiopian calendar and publishes the upcoming
Ethiopian anniversaries as an iCalendar feed on 127.0.0.1.

Settings come from --config and ETHIOCAL_* environment variables. The
address book password is read from the OS keyring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.LoadSettings(a.flags.configPath)
			if err != nil {
				return err
			}
			catalog, err := locale.NewCatalog(settings.Language)
			if err != nil {
				return err
			}

			svc := daemon.New(settings, catalog)
			cmd.Println(catalog.Msg(config.TKeyServeReady, map[string]any{
				"Address": "http://" + config.LocalhostBindAddr + config.AddrSeparator + svc.Server.Port + config.RouteRoot,
			}))
			return svc.Run(cmd.Context())
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf(config.MsgVersionLine,
				config.AppName,
				config.Version,
				config.Commit,
				config.Date,
				runtime.GOOS,
				runtime.GOARCH,
			)
		},
	}
}
