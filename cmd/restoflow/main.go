package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/restoflow/restoflow-mobile/api"
	"github.com/restoflow/restoflow-mobile/bridge"
	"github.com/restoflow/restoflow-mobile/config"
	"github.com/restoflow/restoflow-mobile/kv"
	kvmemory "github.com/restoflow/restoflow-mobile/kv/memory"
	kvpostgres "github.com/restoflow/restoflow-mobile/kv/postgres"
	kvredis "github.com/restoflow/restoflow-mobile/kv/redis"
	"github.com/restoflow/restoflow-mobile/push"
	"github.com/restoflow/restoflow-mobile/session"

	_ "github.com/jackc/pgx/v4/stdlib"
)

// Headless harness: wires the session and notification bridge with
// simulated device capabilities and runs the cold-start flow.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	store, err := newKVStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open storage:", err)
	}

	var manager *session.Manager
	client := api.NewClient(logger, cfg.APIBaseURL, api.WithTokenSource(func() string {
		snap := manager.Current()
		if snap.Session == nil {
			return ""
		}
		return snap.Session.Token
	}))

	manager = session.NewManager(logger, client, session.NewStore(logger, store))

	permissions := push.NewPermissionManager(logger, push.StaticPermission(push.AuthorizationAuthorized))
	registrar := push.NewRegistrar(
		logger,
		store,
		push.StaticTokenProvider("sim-"+uuid.NewString()),
		client,
		push.WithRevalidateInterval(cfg.RevalidateInterval),
	)
	router := push.NewRouter(logger, &logNavigator{log: logger}, push.NewMemorySource())

	b := bridge.New(logger, manager, permissions, registrar, router)
	b.Start(ctx)
	defer b.Stop()

	manager.Restore(ctx)

	<-ctx.Done()
	logger.Info("Shutting down")
}

func newKVStore(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return kvredis.NewInRedis(client, "restoflow:"), nil

	case config.StoragePostgres:
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, kvpostgres.Schema); err != nil {
			return nil, err
		}
		return kvpostgres.NewInPostgres(db), nil

	default:
		return kvmemory.NewInMemory(), nil
	}
}

type logNavigator struct {
	log *zap.Logger
}

func (n *logNavigator) Navigate(target string, params map[string]string) {
	n.log.Info("Navigate", zap.String("target", target), zap.Any("params", params))
}
