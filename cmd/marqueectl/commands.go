package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msomdec/marquee/internal/config"
	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/service"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(domain.Database) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	userCmd.AddCommand(newRoleCommand(ctx, "promote", "Give a user the admin role", (*service.AuthService).PromoteToAdmin))
	userCmd.AddCommand(newRoleCommand(ctx, "demote", "Return an admin to the reader role", (*service.AuthService).DemoteToReader))
	userCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db domain.Database) error {
				users, err := db.Users().List(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Email, u.Name, string(u.Role)})
				}
				writeTable(cmd.OutOrStdout(), []string{"id", "email", "name", "role"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft})
				return nil
			})
		},
	})
	return userCmd
}

type roleChange func(s *service.AuthService, ctx context.Context, email string) (*domain.User, error)

func newRoleCommand(ctx *commandContext, use, short string, change roleChange) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withDatabase(cmd.Context(), func(db domain.Database) error {
				// Role changes touch no tokens, so no signing secret is needed.
				auth := service.NewAuthService(db.Users(), db.Sessions(), "", cfg.Server.BcryptCost, cfg.SessionTTL())
				user, err := change(auth, cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, domain.ErrNoSuchEmail) {
						return fmt.Errorf("no user registered with email %s", args[0])
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
				return nil
			})
		},
	}
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the movie ranking",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog entries by rank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd.Context(), func(db domain.Database) error {
				entries, err := db.Catalog().ListByRank(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rank, rating := "-", "-"
					if e.Finalized() {
						rank = strconv.Itoa(e.RankValue())
						rating = strconv.FormatFloat(e.RatingValue(), 'f', -1, 64)
					}
					rows = append(rows, []string{rank, e.Title, strconv.Itoa(e.Year), rating, e.ReviewText()})
				}
				writeTable(cmd.OutOrStdout(), []string{"rank", "title", "year", "rating", "review"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft})
				return nil
			})
		},
	})
	return catalogCmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	var targetPath string
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write an annotated sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateSample(targetPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", targetPath)
			fmt.Fprintln(cmd.OutOrStdout(), "Set server.secret_key and tmdb.api_key (or SECRET_KEY and TMDB_API) before starting the server.")
			return nil
		},
	}
	initCmd.Flags().StringVarP(&targetPath, "path", "p", "marquee.toml", "Destination for the configuration file")
	configCmd.AddCommand(initCmd)
	return configCmd
}
