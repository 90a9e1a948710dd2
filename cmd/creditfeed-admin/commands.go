package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/service"
)

const defaultCommandTimeout = 5 * time.Minute

// newRootCmd creates the root command and registers every subcommand.
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "creditfeed-admin",
		Short:        "Administrative tasks for the creditfeed service",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if a.timeout <= 0 {
				return errors.New("--timeout must be greater than zero")
			}
			return nil
		},
	}
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultCommandTimeout, "maximum duration for the command")

	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newCreateAdminCmd(a))
	cmd.AddCommand(newSetRoleCmd(a))
	cmd.AddCommand(newSetCreditsCmd(a))
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd.Context(), func(ctx context.Context, b *backend) error {
				if err := b.Schema.Run(ctx); err != nil {
					return fmt.Errorf("run migrations: %w", err)
				}
				cmd.Println("migrations applied")
				return nil
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and when they were applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd.Context(), func(ctx context.Context, b *backend) error {
				migrations, err := b.Schema.Status(ctx)
				if err != nil {
					return fmt.Errorf("migration status: %w", err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tAPPLIED AT")
				for _, m := range migrations {
					applied := "pending"
					if m.Applied() {
						applied = m.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%s\n", m.Version, applied)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

type createAdminOptions struct {
	username      string
	passwordStdin bool
}

func newCreateAdminCmd(a *app) *cobra.Command {
	opts := &createAdminOptions{}
	cmd := &cobra.Command{
		Use:   "create-admin <email>",
		Short: "Create an admin account, prompting for its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.promptNewPassword(cmd, opts.passwordStdin)
			if err != nil {
				return err
			}
			username := opts.username
			if username == "" {
				username = "admin"
			}
			return a.withBackend(cmd.Context(), func(ctx context.Context, b *backend) error {
				user, err := b.Auth.CreateAdmin(ctx, service.CreateAdminInput{
					Username: username,
					Email:    args[0],
					Password: password,
				})
				if err != nil {
					return fmt.Errorf("create admin: %w", err)
				}
				cmd.Printf("created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.username, "username", "", "display name for the admin (default \"admin\")")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
	return cmd
}

func (a *app) promptNewPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		pw, err := readPasswordLine(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		if pw == "" {
			return "", errors.New("password must not be empty")
		}
		return pw, nil
	}
	pw, err := a.readPassword("Password: ", cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	confirm, err := a.readPassword("Confirm password: ", cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errPasswordMismatch
	}
	return pw, nil
}

func newSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change the role of an existing account (user or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domainauth.ParseRole(args[1])
			if err != nil {
				return err
			}
			return a.withBackend(cmd.Context(), func(ctx context.Context, b *backend) error {
				user, err := b.Users.SetRole(ctx, args[0], role)
				if err != nil {
					return fmt.Errorf("set role: %w", err)
				}
				cmd.Printf("%s is now %s\n", user.Email, user.Role)
				return nil
			})
		},
	}
}

func newSetCreditsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-credits <email> <credits>",
		Short: "Overwrite the credit balance of an existing account",
		Long: "Overwrite the credit balance of an existing account.\n\n" +
			"Values starting with '-' are read as flags; put them after \"--\".",
		Example: "  creditfeed-admin set-credits alice@example.com 250\n" +
			"  creditfeed-admin set-credits -- alice@example.com -1",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || credits < 0 {
				return service.ErrInvalidCredits
			}
			return a.withBackend(cmd.Context(), func(ctx context.Context, b *backend) error {
				user, err := b.Users.UpdateCreditsByEmail(ctx, args[0], credits)
				if err != nil {
					return fmt.Errorf("set credits: %w", err)
				}
				cmd.Printf("%s now has %d credits\n", user.Email, user.Credits)
				return nil
			})
		},
	}
}
