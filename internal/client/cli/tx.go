package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/models"
	"github.com/spf13/cobra"
)

func newTxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
	}
	cmd.AddCommand(
		newTxAddCmd(app),
		newTxListCmd(app),
		newTxRmCmd(app),
	)
	return cmd
}

func newTxAddCmd(app *App) *cobra.Command {
	var (
		bookID   int64
		kind     string
		category string
		note     string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction in a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			// fail now, not on the next push
			if _, err := st.Books.GetByLocalID(cmd.Context(), bookID); err != nil {
				return fmt.Errorf("book %d: %w", bookID, err)
			}

			now := time.Now()
			id, err := st.Transactions.Insert(cmd.Context(), &models.Transaction{
				BookLocalID: bookID,
				Kind:        models.TransactionKind(kind),
				Amount:      amount,
				Category:    category,
				Note:        note,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added transaction %d\n", id)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&bookID, "book", "b", 0, "local id of the book")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(models.KindExpense), "income or expense")
	cmd.Flags().StringVarP(&category, "category", "g", "", "category label")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-form note")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newTxListCmd(app *App) *cobra.Command {
	var (
		bookID int64
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a book's transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			items, err := st.Transactions.ListByBook(cmd.Context(), bookID, all)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tCATEGORY\tNOTE")
			var balance float64
			for _, tx := range items {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
					tx.LocalID, tx.CreatedAt.Format("2006-01-02"), tx.Kind, tx.Amount, tx.Category, tx.Note)
				if !tx.Deleted {
					if tx.Kind == models.KindIncome {
						balance += tx.Amount
					} else {
						balance -= tx.Amount
					}
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %.2f\n", balance)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&bookID, "book", "b", 0, "local id of the book")
	cmd.Flags().BoolVar(&all, "all", false, "include deleted transactions")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newTxRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}

			_, st, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Transactions.SoftDelete(cmd.Context(), id, time.Now()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
