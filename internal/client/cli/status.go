package cli

import (
	"fmt"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, pending changes and sync cursors",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			userID, st, err := app.session(ctx)
			if err != nil {
				return err
			}

			dirtyBooks, err := st.Books.ListDirty(ctx)
			if err != nil {
				return err
			}
			dirtyTxs, err := st.Transactions.ListDirty(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "User:         %s\n", userID)
			fmt.Fprintf(out, "Remote mode:  %s\n", app.cfg.RemoteMode)
			fmt.Fprintf(out, "Pending push: %d books, %d transactions\n", len(dirtyBooks), len(dirtyTxs))

			for _, c := range []models.Collection{models.CollectionBooks, models.CollectionTransactions} {
				pulled, err := st.State.GetLastPulledAt(ctx, c)
				if err != nil {
					return err
				}
				pushed, err := st.State.GetLastPushedAt(ctx, c)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: pulled %s, pushed %s\n", c, formatCursor(pulled), formatCursor(pushed))
			}
			return nil
		},
	}
}

func formatCursor(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}
