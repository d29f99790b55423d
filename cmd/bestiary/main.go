package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bestiary/internal/infra/config"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
	"github.com/mkrupp/bestiary/internal/repo/blob"
	"github.com/mkrupp/bestiary/internal/repo/cache"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
	"github.com/mkrupp/bestiary/internal/svc/imagesvc"
)

const appName = "bestiary"

type Config struct {
	config.EnvConfig

	Log   logging.LoggerConfig                `envPrefix:"LOG_"`
	HTTP  http_.HTTPTransportConfig           `envPrefix:"HTTP_"`
	DB    sqlitedb.Config                     `envPrefix:"DB_"`
	Auth  authsvc.AuthConfig                  `envPrefix:"AUTH_"`
	Gen   gensvc.GenConfig                    `envPrefix:"GEN_"`
	Cache cache.Config                        `envPrefix:"CACHE_"`
	Image imagesvc.ImageConfig                `envPrefix:"IMAGE_"`
	Blob  blob.FileSystemBlobRepositoryConfig `envPrefix:"BLOB_"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Bestiary JSON API",
		Long: `bestiary serves the bestiary JSON API: users, creature types, creatures,
combats and hybrids.

Configuration is read from BESTIARY_* environment variables; flags override them.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := config.Parse(ctx, &cfg, strings.ToUpper(appName)); err != nil {
				return err //nolint:wrapcheck
			}

			applyFlags(cmd, &cfg)

			logging.Configure(ctx, cfg.Log, appName)

			return nil
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "SQLite database path (env: BESTIARY_DB_PATH)")
	flags.Bool("dev", false, "Allow the insecure development signing secret (env: BESTIARY_AUTH_DEVELOPMENT)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (env: BESTIARY_LOG_LEVEL)")

	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newSeedCmd(&cfg))
	rootCmd.AddCommand(newTokenCmd(&cfg))

	rootCmd.SetContext(context.Background())

	return rootCmd
}

// applyFlags overrides cfg with the persistent flags that were set explicitly.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()

	if flags.Changed("db") {
		cfg.DB.Path, _ = flags.GetString("db")
	}

	if flags.Changed("dev") {
		cfg.Auth.Development, _ = flags.GetBool("dev")
	}

	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	if flags.Changed("addr") {
		cfg.HTTP.ServerAddr, _ = flags.GetString("addr")
	}
}
