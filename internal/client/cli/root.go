package cli

import (
	"github.com/dkurniawan/bukukas/internal/buildinfo"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the command tree. Persistent flags are bound straight
// to the App's config, so flag overrides land on top of defaults and JSON
// before any command runs.
func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bukukas",
		Short:         "Offline-first personal finance tracker",
		Long:          "bukukas keeps cash books and transactions in a local database and synchronizes them with a remote store when asked.",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&app.cfg.RemoteAddr, "addr", "a", app.cfg.RemoteAddr, "base URL of the hosted API")
	pf.StringVar(&app.cfg.RemoteMode, "mode", app.cfg.RemoteMode, "remote transport: http or postgres")
	pf.StringVar(&app.cfg.PostgresDSN, "dsn", app.cfg.PostgresDSN, "connection string of the shared database (postgres mode)")
	pf.StringVar(&app.cfg.DataDir, "data-dir", app.cfg.DataDir, "directory holding local databases and the credential")
	pf.StringVar(&app.cfg.LogFile, "log-file", app.cfg.LogFile, "log destination; empty logs to stderr")
	pf.DurationVar(&app.cfg.SyncTimeout, "sync-timeout", app.cfg.SyncTimeout, "budget for one sync cycle")
	// Read earlier by the config loader; declared here so cobra accepts it.
	pf.StringP("config", "c", "", "path to JSON config file")

	cmd.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newRegisterCmd(app),
		newSyncCmd(app),
		newBookCmd(app),
		newTxCmd(app),
		newStatusCmd(app),
	)
	return cmd
}
