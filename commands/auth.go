package commands

import (
	"fmt"

	"product-console/forms"

	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var form forms.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with email and password. Missing values are prompted for; the
password is read without echo when the input is a terminal.`,
		Args: cobra.NoArgs,
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			c := newConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			var err error
			if form.Email == "" {
				if form.Email, err = c.prompt("Email: "); err != nil {
					return err
				}
			}
			if form.Password == "" {
				if form.Password, err = c.password("Password: "); err != nil {
					return err
				}
			}

			if err := form.Submit(cmd.Context(), a.client, a.sessions); err != nil {
				return userError(form.Error, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		}),
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCommand(a *app) *cobra.Command {
	var form forms.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			c := newConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			var err error
			if form.Name == "" {
				if form.Name, err = c.prompt("Name: "); err != nil {
					return err
				}
			}
			if form.Email == "" {
				if form.Email, err = c.prompt("Email: "); err != nil {
					return err
				}
			}
			if form.Password == "" {
				if form.Password, err = c.password("Password: "); err != nil {
					return err
				}
			}

			if err := form.Submit(cmd.Context(), a.client, a.sessions); err != nil {
				return userError(form.Error, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created, logged in")
			return nil
		}),
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: runWithApp(a, func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.End(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}
