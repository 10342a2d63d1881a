package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/client/services"
	"github.com/spf13/cobra"
)

// username takes the first argument or prompts for it.
func (a *App) username(cmd *cobra.Command, r *bufio.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	name, err := GetSimpleText(r, "Enter username", cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("username is required")
	}
	return name, nil
}

func (a *App) signupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signup [username]",
		Short: "Register a new identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.reader(cmd)
			name, err := a.username(cmd, r, args)
			if err != nil {
				return err
			}
			password, err := GetNewPassword(r, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			return a.withAuth(cmd, func(ctx context.Context, as services.AuthService) error {
				if err := as.Register(ctx, name, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", name)
				return nil
			})
		},
	}
}

func (a *App) signinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signin [username]",
		Short: "Sign in with the next credential on the chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := a.reader(cmd)
			name, err := a.username(cmd, r, args)
			if err != nil {
				return err
			}
			password, err := GetPassword(r, "Enter password: ", cmd.OutOrStdout())
			if err != nil {
				return err
			}

			return a.withAuth(cmd, func(ctx context.Context, as services.AuthService) error {
				res, err := as.Login(ctx, name, password)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in as %s (index %d)\n", name, res.Index)
				if res.Rotated {
					fmt.Fprintln(out, "Salt rotated: a fresh chain is now in use")
				}
				return nil
			})
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd, func(ctx context.Context, as services.AuthService) error {
				who, err := as.Whoami(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "user:  %s\n", who.Username)
				fmt.Fprintf(out, "id:    %s\n", who.UserID)
				fmt.Fprintf(out, "index: %d\n", who.Index)
				if who.Since != "" {
					fmt.Fprintf(out, "since: %s\n", who.Since)
				}
				return nil
			})
		},
	}
}

func (a *App) signoutCommand() *cobra.Command {
	var forget bool

	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Forget the local session",
		Long: `Forget the local session.

With --forget the indices recorded for the session user are dropped as well,
so the next signin trusts whatever index the server asks for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd, func(ctx context.Context, as services.AuthService) error {
				if err := as.Logout(ctx, forget); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also drop the recorded chain indices")
	return cmd
}

func (a *App) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAuth(cmd, func(ctx context.Context, as services.AuthService) error {
				if err := as.Ping(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			})
		},
	}
}
