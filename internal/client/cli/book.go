package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/spf13/cobra"
)

func newBookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Manage cash books",
	}
	cmd.AddCommand(
		newBookAddCmd(app),
		newBookListCmd(app),
		newBookRenameCmd(app),
		newBookRmCmd(app),
	)
	return cmd
}

func newBookAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new cash book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return common.ErrEmptyBookName
			}

			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			id, err := st.Books.Insert(cmd.Context(), &models.Book{
				Name:      args[0],
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book %d (%s)\n", id, args[0])
			return nil
		},
	}
}

func newBookListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cash books",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			items, err := st.Books.GetAll(cmd.Context(), all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATE")
			for _, b := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\n", b.LocalID, b.Name, bookState(&b))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include deleted books")
	return cmd
}

func bookState(b *models.Book) string {
	switch {
	case b.Deleted:
		return "deleted"
	case b.NeedsPush():
		return "pending"
	default:
		return "synced"
	}
}

func newBookRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a cash book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			if args[1] == "" {
				return common.ErrEmptyBookName
			}

			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Books.Rename(cmd.Context(), id, args[1], time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Renamed.")
			return nil
		},
	}
}

func newBookRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a cash book and its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}

			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			// Tombstones, not a hard delete: the removal still has to reach
			// the remote store on the next sync.
			if err := st.DeleteBookCascade(cmd.Context(), id, time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
