package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"anime/catalog/internal/client"
	"anime/catalog/internal/config"
	"anime/catalog/internal/controller"
	"anime/catalog/internal/proxy"
	"anime/catalog/internal/render"
	"anime/catalog/internal/repository"
	"anime/catalog/internal/server"
	"anime/catalog/internal/state"
	"anime/catalog/internal/viewstate"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Container holds all initialized components
type Container struct {
	Config *config.Config
	Client client.CatalogClient
	Stores state.Factory

	db     *pgxpool.Pool
	sqlite *sql.DB
	redis  *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Catalog.Proxies, cfg.Catalog.BaseURL, nil)
	container.Client = client.NewCatalogClient(cfg.Catalog, proxySupplier)

	if err := container.openStorage(ctx); err != nil {
		container.Close()
		return nil, err
	}

	return container, nil
}

func (c *Container) openStorage(ctx context.Context) error {
	cfg := c.Config

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		c.Stores = state.NewMemoryFactory().Store
		log.Warn("⚠️ Using in-memory preference storage, nothing survives a restart")

	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		c.Stores = func(namespace string) state.Store {
			return state.NewRedisStore(rdb, cfg.Redis.KeyPrefix, namespace, viewstate.Keys)
		}

	case config.StoragePostgres:
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		c.db = db

		if err := repository.EnsurePostgresSchema(ctx, db); err != nil {
			return err
		}
		log.Info("✅ Connected to PostgreSQL successfully")

		c.Stores = func(namespace string) state.Store {
			return repository.NewPostgresStore(db, namespace)
		}

	case config.StorageSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		c.sqlite = db

		c.Stores = func(namespace string) state.Store {
			return repository.NewSQLiteStore(db, namespace)
		}

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return nil
}

// Controller builds an unrestored controller over the namespace's stored
// preferences.
func (c *Container) Controller(namespace string, location controller.Location, opts ...controller.Option) *controller.Controller {
	opts = append([]controller.Option{
		controller.WithFetchTimeout(time.Duration(c.Config.Catalog.Timeout) * time.Second * 2),
	}, opts...)
	return controller.New(c.Client, c.Stores(namespace), location, opts...)
}

// Server builds the HTTP front end. Every browser session gets its own
// namespace below the configured one.
func (c *Container) Server() *server.Server {
	return server.New(func(sessionID string) *controller.Controller {
		return c.Controller(c.Config.Storage.Namespace+":"+sessionID, controller.NewAddress("/anime"))
	}, render.DefaultColumns,
		server.WithMaxSessions(c.Config.Server.MaxSessions),
		server.WithSessionTTL(time.Duration(c.Config.Server.SessionTTL)*time.Second),
	)
}

// Serve runs the HTTP server until ctx is cancelled.
func (c *Container) Serve(ctx context.Context) error {
	srv := c.Server()
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              c.Config.Server.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 Listening on http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	var errs []error
	if c.db != nil {
		c.db.Close()
	}
	if c.sqlite != nil {
		errs = append(errs, c.sqlite.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Debug("Container shut down successfully")
	return errors.Join(errs...)
}
