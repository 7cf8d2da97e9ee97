package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/Polqt/hieraengine/internal/api/v1"
	"github.com/Polqt/hieraengine/internal/admin"
	"github.com/Polqt/hieraengine/internal/cache"
	"github.com/Polqt/hieraengine/internal/hiera"
	"github.com/Polqt/hieraengine/internal/level"
	"github.com/Polqt/hieraengine/internal/model"
	"github.com/Polqt/hieraengine/internal/nodegroup"
	"github.com/Polqt/hieraengine/internal/store"
	"github.com/Polqt/hieraengine/internal/sync"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the hierad HTTP server and change-stream synchronisers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancelConnect()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)
	keyModelsColl := db.Collection("key_models")
	keysColl := db.Collection("keys")
	levelsColl := db.Collection("levels")
	nodeGroupsColl := db.Collection("node_groups")
	levelDataColl := db.Collection("level_data")
	lookupCacheColl := db.Collection("lookup_cache")

	keyModelRegistry := model.NewRegistry()
	keyRegistry := model.NewKeyRegistry()
	levelRegistry := level.NewRegistry()
	nodeGroupCache := nodegroup.NewCache()

	levelDataStore := store.NewMongoLevelDataStore(levelDataColl)
	if err := levelDataStore.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure level_data indexes failed", zap.Error(err))
	}
	lookupCache := cache.NewMongoCache(lookupCacheColl)
	if err := lookupCache.EnsureIndexes(ctx); err != nil {
		logger.Warn("ensure lookup_cache indexes failed", zap.Error(err))
	}

	engine := hiera.New(keyModelRegistry, keyRegistry, levelRegistry, levelDataStore, lookupCache)
	surface := admin.New(engine, keyModelsColl, keysColl, levelsColl, nodeGroupsColl)

	manager := sync.NewManager(
		&sync.Watcher{Name: "key_models", Collection: keyModelsColl, Projector: &sync.KeyModelProjector{Registry: keyModelRegistry}, Log: logger, PollInterval: cfg.Mongo.ChangeStreamPoll},
		&sync.Watcher{Name: "keys", Collection: keysColl, Projector: &sync.KeyProjector{Keys: keyRegistry, KeyModels: keyModelRegistry}, Log: logger, PollInterval: cfg.Mongo.ChangeStreamPoll},
		&sync.Watcher{Name: "levels", Collection: levelsColl, Projector: &sync.LevelProjector{Registry: levelRegistry}, Log: logger, PollInterval: cfg.Mongo.ChangeStreamPoll},
		&sync.Watcher{Name: "node_groups", Collection: nodeGroupsColl, Projector: &sync.NodeGroupProjector{Cache: nodeGroupCache}, Log: logger, PollInterval: cfg.Mongo.ChangeStreamPoll},
	)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      apiv1.Handler(surface),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return manager.Run(groupCtx)
	})
	group.Go(func() error {
		logger.Info("hierad listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}

	return group.Wait()
}
