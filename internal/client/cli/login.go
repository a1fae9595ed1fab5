package cli

import (
	"fmt"

	"github.com/dkurniawan/bukukas/internal/client/auth"
	"github.com/dkurniawan/bukukas/internal/client/config"
	"github.com/dkurniawan/bukukas/internal/client/remote/httpapi"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func newLoginCmd(app *App) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			// Postgres mode has no token service; the identity is declared
			// and a local credential minted for it.
			if app.cfg.RemoteMode == config.ModePostgres {
				if user == "" {
					var err error
					user, err = getSimpleText(app.reader, "Enter user id", out)
					if err != nil {
						return err
					}
				}
				token, err := auth.GenerateLocalToken(user)
				if err != nil {
					return err
				}
				if err := app.creds.Save(token); err != nil {
					return err
				}
				fmt.Fprintf(out, "Logged in as %s\n", user)
				return nil
			}

			email, err := getSimpleText(app.reader, "Enter email", out)
			if err != nil {
				return err
			}
			password, err := getPassword(out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			client := httpapi.NewClient(app.cfg.RemoteAddr, app.creds.Token)
			token, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := app.creds.Save(token); err != nil {
				return err
			}

			cred, err := app.creds.Load()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Logged in as %s\n", cred.UserID)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id to log in as (postgres mode)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.creds.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newRegisterCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account on the hosted API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.RemoteMode != config.ModeHTTP {
				return fmt.Errorf("register requires http mode")
			}
			out := cmd.OutOrStdout()

			email, err := getSimpleText(app.reader, "Enter email", out)
			if err != nil {
				return err
			}
			password, err := getPassword(out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			client := httpapi.NewClient(app.cfg.RemoteAddr, app.creds.Token)
			if err := client.Register(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintln(out, "Success!")
			return nil
		},
	}
}
