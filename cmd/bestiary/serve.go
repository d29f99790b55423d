package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkrupp/bestiary/internal/infra/logging"
	http_ "github.com/mkrupp/bestiary/internal/infra/transport/http"
	"github.com/mkrupp/bestiary/internal/repo/blob"
	"github.com/mkrupp/bestiary/internal/repo/cache"
	"github.com/mkrupp/bestiary/internal/repo/combat"
	"github.com/mkrupp/bestiary/internal/repo/creature"
	"github.com/mkrupp/bestiary/internal/repo/hybrid"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
	"github.com/mkrupp/bestiary/internal/repo/user"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
	"github.com/mkrupp/bestiary/internal/svc/combatsvc"
	"github.com/mkrupp/bestiary/internal/svc/creaturesvc"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
	"github.com/mkrupp/bestiary/internal/svc/hybridsvc"
	"github.com/mkrupp/bestiary/internal/svc/imagesvc"
	"github.com/mkrupp/bestiary/internal/svc/typesvc"
)

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, *cfg)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (env: BESTIARY_HTTP_SERVER_ADDR)")

	return cmd
}

func serve(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.bestiary")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	db, err := sqlitedb.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close() //nolint:errcheck

	var textCache cache.TextCache

	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisTextCache(ctx, cfg.Cache)
		if err != nil {
			return fmt.Errorf("text cache: %w", err)
		}
		defer redisCache.Close() //nolint:errcheck

		textCache = redisCache
	}

	genSvc, err := gensvc.NewGenService(ctx, cfg.Gen, textCache)
	if err != nil {
		return fmt.Errorf("new gen service: %w", err)
	}

	var imageCache blob.Repository

	if cfg.Blob.Basedir != "" {
		if imageCache, err = blob.NewFileSystemBlobRepository(ctx, "images", "img", cfg.Blob); err != nil {
			return fmt.Errorf("image cache: %w", err)
		}
	}

	authSvc, err := authsvc.NewAuthService(ctx, user.NewSQLiteUserRepository(db), cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	creatures := creature.NewSQLiteRepository(db)

	creatureSvc := creaturesvc.NewCreatureService(creatures, creatures, genSvc,
		imagesvc.NewProxyImageService(cfg.Image, nil, imageCache), authSvc)
	typeSvc := typesvc.NewTypeService(creatures, creatures, authSvc)
	combatSvc := combatsvc.NewCombatService(creatures, combat.NewSQLiteCombatRepository(db))
	hybridSvc := hybridsvc.NewHybridService(creatures, hybrid.NewSQLiteHybridRepository(db), genSvc, authSvc)

	router := http_.NewRouter(cfg.HTTP,
		[]http_.Middleware{http_.AuthenticatingMiddleware(authSvc)},
		authsvc.NewHTTPTransport(authSvc),
		typesvc.NewHTTPTransport(typeSvc),
		creaturesvc.NewHTTPTransport(creatureSvc),
		combatsvc.NewHTTPTransport(combatSvc),
		hybridsvc.NewHTTPTransport(hybridSvc),
	)

	if err := http_.ListenAndServe(ctx, router, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
