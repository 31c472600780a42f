package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/content"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
	"github.com/YugenJarwal13/InternalDMS/internal/repository"
	"github.com/YugenJarwal13/InternalDMS/internal/seed"
	"github.com/YugenJarwal13/InternalDMS/internal/service"
	serviceAuth "github.com/YugenJarwal13/InternalDMS/internal/service/auth"
	serviceDocsys "github.com/YugenJarwal13/InternalDMS/internal/service/docsystem"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Bootstrap users and teams",
		Long: `seed writes users and teams straight into the configured metadata store.
It reads the same DMS_* configuration as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newAdminCommand())
	rootCmd.AddCommand(newApplyCommand())
	return rootCmd
}

func newAdminCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSeeder(cmd.Context(), func(s *seed.Seeder) error {
				user, err := s.CreateAdmin(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", os.Getenv("DMS_SEED_ADMIN_PASSWORD"), "admin password (default $DMS_SEED_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <file.yaml>",
		Short: "Create the users, teams and memberships listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			manifest, err := seed.LoadManifest(f)
			if err != nil {
				return err
			}

			return withSeeder(cmd.Context(), func(s *seed.Seeder) error {
				report, err := s.Apply(cmd.Context(), manifest)
				if report != nil {
					out, _ := yaml.Marshal(report)
					cmd.OutOrStdout().Write(out)
				}
				return err
			})
		},
	}
}

// withSeeder opens the configured stores for the duration of fn.
func withSeeder(ctx context.Context, fn func(*seed.Seeder) error) error {
	_ = godotenv.Load()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	normalizer, err := pathutil.NewNormalizer(cfg.Store.Root)
	if err != nil {
		return err
	}
	if err := serviceDocsys.EnsureRoot(ctx, backend.Tree, normalizer.Root()); err != nil {
		return err
	}
	contentStore, err := content.New(ctx, cfg.Content, logger)
	if err != nil {
		return err
	}

	authorizer := serviceAuth.NewTeamAuthorizer(backend.Teams)
	tree := serviceDocsys.NewTreeService(backend.Tree, contentStore, backend.Activity, backend.Users,
		backend.Teams, authorizer, serviceDocsys.NewSubtreeLocker(), normalizer, logger)

	return fn(seed.NewSeeder(
		service.NewUserService(backend.Users, backend.Teams, nil, logger),
		service.NewTeamService(backend.Teams, backend.Users, backend.Activity, tree, normalizer.Root(), logger),
		backend.Users,
		backend.Teams,
		logger,
	))
}
