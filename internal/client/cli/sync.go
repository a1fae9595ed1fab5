package cli

import (
	"context"
	"fmt"

	engine "github.com/dkurniawan/bukukas/internal/client/sync"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one pull-resolve-push cycle against the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			userID, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			gw, release, err := app.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			eng := engine.NewEngine(st.Books, st.Transactions, st.State, gw, app.log)
			eng.SubscribeStatus(func(s engine.Status) {
				switch s {
				case engine.StatusPulling, engine.StatusResolving, engine.StatusPushing:
					fmt.Fprintf(out, "%s...\n", s)
				}
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.SyncTimeout)
			defer cancel()

			if err := eng.SyncAll(ctx, userID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Sync completed.")
			return nil
		},
	}
}
