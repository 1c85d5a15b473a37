package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harunnryd/solace/cmd/solace/runtime"

	"github.com/harunnryd/solace/internal/auth"
	solaceErrors "github.com/harunnryd/solace/internal/errors"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your employee id",
	Long:  `Sign in to the support backend. The password is read from the terminal without echo, or from SOLACE_PASSWORD when set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			employeeID, _ := cmd.Flags().GetString("employee-id")
			if employeeID == "" {
				var err error
				if employeeID, err = promptLine(in, out, "Employee ID: "); err != nil {
					return fmt.Errorf("read employee id: %w", err)
				}
			}

			password := os.Getenv("SOLACE_PASSWORD")
			if password == "" {
				var err error
				if password, err = promptPassword(in, out, "Password: "); err != nil {
					return err
				}
			}

			identity, err := auth.SignIn(r.Ctx, r.Auth, r.Store, auth.Credentials{EmployeeID: employeeID, Password: password})
			if err != nil {
				var resetErr *solaceErrors.ResetError
				if errors.As(err, &resetErr) && resetErr.RedirectURL != "" {
					return fmt.Errorf("%s Reset it at %s", solaceErrors.UserMessage(err), resetErr.RedirectURL)
				}
				return errors.New(solaceErrors.UserMessage(err))
			}

			fmt.Fprintln(out, r.Renderer.Identity(identity, true))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the local chat state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			if err := auth.SignOut(r.Store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithRuntime(cmd, func(r *runtime.Components) error {
			out := cmd.OutOrStdout()
			identity := r.Store.Identity()
			fmt.Fprintln(out, r.Renderer.Identity(identity, r.Store.IsAuthenticated()))

			exp, ok := auth.TokenExpiry(identity.AccessToken)
			switch {
			case !ok:
			case auth.Expired(identity.AccessToken, time.Now()):
				fmt.Fprintln(out, "Access token expired; it will be refreshed on the next request.")
			default:
				fmt.Fprintf(out, "Access token expires %s\n", exp.In(r.Location).Format(time.RFC1123))
			}
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringP("employee-id", "u", "", "employee id (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
