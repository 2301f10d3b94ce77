package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/linkshare/linkshare/backend/session-store/handlers"
	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/database"
	"github.com/linkshare/linkshare/backend/session-store/internal/sessions"
	"github.com/linkshare/linkshare/backend/session-store/internal/tokens"
	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

const (
	storeMongo  = "mongo"
	storeMemory = "memory"

	janitorInterval = time.Minute
)

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Provision the database, then serve the session API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "skip-provision",
				Usage: "start without applying the layout",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "session backend: mongo or memory",
				Value: storeMongo,
			},
		},
		Action: func(c *cli.Context) error {
			if err := serve(c.Context, configFrom(c), c.String("store"), c.Bool("skip-provision"), c); err != nil {
				var ec cli.ExitCoder
				if errors.As(err, &ec) {
					return err
				}
				return cli.Exit(color.RedString("%s", err), ExitFailure)
			}
			return nil
		},
	}
}

// backend is everything the router needs from the chosen store.
type backend struct {
	deps  handlers.RouterDeps
	close func()
}

func serve(parent context.Context, cfg *config.Config, store string, skipProvision bool, c *cli.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := tokens.NewIssuer(cfg.JWT)
	if err != nil {
		return fmt.Errorf("%w: set JWT_KEY_ACCESS_TOKEN and JWT_KEY_REFRESH_TOKEN", err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warnf("continuing without Redis: %v", err)
		rdb = nil
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var b *backend
	switch store {
	case storeMemory:
		b = memoryBackend(ctx, rdb, issuer)
	case storeMongo:
		b, err = mongoBackend(ctx, cfg, rdb, issuer, skipProvision, c)
		if err != nil {
			return err
		}
	default:
		return cli.Exit(fmt.Sprintf("unknown store %q (want %s or %s)", store, storeMongo, storeMemory), ExitFailure)
	}
	defer b.close()

	b.deps.Config = cfg
	b.deps.Redis = rdb
	if rdb != nil {
		b.deps.Checks = append(b.deps.Checks, handlers.Check{Name: "redis", Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	return listen(ctx, cfg.Server, handlers.NewRouter(b.deps))
}

func memoryBackend(ctx context.Context, rdb *redis.Client, issuer *tokens.Issuer) *backend {
	logger.Warn("using the in-memory session store; sessions are lost on restart")
	access := sessions.NewMemoryRepository[sessions.AccessTokenSession]()
	refresh := sessions.NewMemoryRepository[sessions.RefreshTokenSession]()
	go sessions.RunJanitor(ctx, janitorInterval, access, refresh)
	return &backend{
		deps: handlers.RouterDeps{
			Sessions: newService(access, refresh, rdb, issuer),
		},
		close: func() {},
	}
}

func mongoBackend(ctx context.Context, cfg *config.Config, rdb *redis.Client, issuer *tokens.Issuer, skipProvision bool, c *cli.Context) (*backend, error) {
	client, prov, err := openProvisioner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !skipProvision {
		if err := runProvision(ctx, prov, c.App.Writer); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}
	db := client.Database(cfg.MongoDB.Database)
	access := sessions.NewMongoRepository[sessions.AccessTokenSession](db)
	refresh := sessions.NewMongoRepository[sessions.RefreshTokenSession](db)
	return &backend{
		deps: handlers.RouterDeps{
			Sessions: newService(access, refresh, rdb, issuer),
			Schema:   prov,
			Checks: []handlers.Check{
				{Name: "mongodb", Fn: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }},
				handlers.SchemaCheck(prov),
			},
		},
		close: func() { disconnect(client) },
	}, nil
}

// newService layers the Redis cache over both stores; a nil client disables it.
func newService(access sessions.Store[sessions.AccessTokenSession], refresh sessions.Store[sessions.RefreshTokenSession], rdb *redis.Client, issuer sessions.TokenIssuer) *sessions.Service {
	return sessions.NewService(
		sessions.NewCachedStore(access, sessions.NewCache[sessions.AccessTokenSession](rdb)),
		sessions.NewCachedStore(refresh, sessions.NewCache[sessions.RefreshTokenSession](rdb)),
		issuer,
	)
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
}

// listen serves until ctx is cancelled, then drains in-flight requests.
func listen(ctx context.Context, sc config.ServerConfig, h http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", sc.Host, sc.Port),
		Handler:      h,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("session store listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := sc.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	logger.Infof("shutting down (timeout %s)", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
