package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/zphere-app/tenantdb/modules/admin"
	"github.com/zphere-app/tenantdb/pkg/config"
	"github.com/zphere-app/tenantdb/pkg/driver"
	"github.com/zphere-app/tenantdb/pkg/driver/postgres"
	"github.com/zphere-app/tenantdb/pkg/driver/sqlite"
	"github.com/zphere-app/tenantdb/pkg/httpserver"
	"github.com/zphere-app/tenantdb/pkg/logger"
	"github.com/zphere-app/tenantdb/pkg/masterdb"
	"github.com/zphere-app/tenantdb/pkg/provisioner"
	"github.com/zphere-app/tenantdb/pkg/registry"
	"github.com/zphere-app/tenantdb/pkg/schema"
	"github.com/zphere-app/tenantdb/pkg/session"
	"github.com/zphere-app/tenantdb/pkg/tenant"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`       // Env selects logging presets.
	BaseDomain  string `env:"BASE_DOMAIN" envDefault:""`              // BaseDomain is the suffix stripped before subdomain extraction, e.g. ".zphere.app".
	RedisURL    string `env:"REDIS_URL" envDefault:""`                // RedisURL enables the shared tenant lookup cache when set.
	SweepOnBoot bool   `env:"SCHEMA_SWEEP_ON_BOOT" envDefault:"true"` // SweepOnBoot runs a schema reconciliation sweep at startup.
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg    appConfig
		drvCfg    driver.Config
		masterCfg masterdb.Config
		regCfg    registry.Config
		recCfg    schema.Config
		httpCfg   httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&drvCfg)
	config.MustLoad(&masterCfg)
	config.MustLoad(&regCfg)
	config.MustLoad(&recCfg)
	config.MustLoad(&httpCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "tenantdb"),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	drv, err := newDriver(drvCfg)
	if err != nil {
		return err
	}

	master, err := masterdb.Connect(ctx, drv, masterCfg)
	if err != nil {
		return fmt.Errorf("connect master database: %w", err)
	}
	defer master.Close()

	// Postgres deployments carry versioned migrations; the sqlite engine
	// bootstraps its single-file master schema directly.
	if drv.Name() == "postgres" {
		if err := masterdb.Migrate(ctx, master, drv, masterCfg, log); err != nil {
			return err
		}
	} else {
		if err := masterdb.EnsureSchema(ctx, master); err != nil {
			return err
		}
	}

	store := masterdb.NewStore(master, drv)
	prov := provisioner.New(store, drv, schema.Catalog(), log)
	reg := registry.New(drv, prov, regCfg, log)
	prov.SetEvictor(reg)
	defer reg.CloseAll(context.Background())

	rec := schema.NewReconciler(store, prov, reg, drv, recCfg, log)
	if appCfg.SweepOnBoot {
		// Best effort: failures are already logged per tenant and retried
		// on the next sweep.
		if _, err := rec.ReconcileAll(ctx, schema.Catalog()); err != nil {
			log.ErrorContext(ctx, "startup schema sweep failed", slog.Any("error", err))
		}
	}

	router := session.NewRouter(master, reg)

	resolver := tenant.NewChainResolver(
		tenant.NewHeaderResolver(),
		tenant.NewAdminPathResolver("/admin"),
		newSubdomainResolver(appCfg, store, log),
	)

	svc := admin.NewService(store, prov, rec, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(tenant.Middleware(resolver))
	r.Get("/healthz", healthzHandler(masterdb.Healthcheck(master)))
	r.Route("/admin", func(r chi.Router) {
		r.Use(tenant.RequireAdmin(nil))
		r.Mount("/", admin.Router(svc, log))
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenant.RequireTenant(nil))
		r.Get("/ping", tenantPingHandler(router))
	})

	return httpserver.New(httpCfg, log).Run(ctx, r)
}

func newDriver(cfg driver.Config) (driver.Driver, error) {
	switch cfg.Engine {
	case "postgres":
		return postgres.New(cfg.MasterURL, cfg.TenantDBPrefix)
	case "sqlite":
		return sqlite.New(cfg.SQLiteDir, cfg.TenantDBPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", driver.ErrUnknownEngine, cfg.Engine)
	}
}

// newSubdomainResolver wires the organization provider and, when Redis is
// configured, the shared lookup cache used by multi-instance deployments.
func newSubdomainResolver(cfg appConfig, store *masterdb.Store, log *slog.Logger) tenant.Resolver {
	provider := tenant.ProviderFunc(func(ctx context.Context, slug string) (*tenant.Organization, error) {
		org, err := store.GetActiveBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		return &tenant.Organization{ID: org.ID.String(), Slug: org.Slug, Active: org.IsActive}, nil
	})

	var opts []tenant.SubdomainOption
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("invalid REDIS_URL, falling back to in-memory lookup cache", slog.Any("error", err))
		} else {
			opts = append(opts, tenant.WithLookupCache(tenant.NewRedisCache(redis.NewClient(redisOpts), "")))
		}
	}
	return tenant.NewSubdomainResolver(cfg.BaseDomain, provider, opts...)
}

func healthzHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			http.Error(w, "master database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// tenantPingHandler verifies end-to-end tenant routing: resolution,
// provisioning on first touch, and a query against the tenant's own pool.
func tenantPingHandler(router *session.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tctx, _ := tenant.FromContext(r.Context())
		db, release, err := router.TenantDB(r.Context(), tctx)
		if err != nil {
			if errors.Is(err, session.ErrNotTenantContext) {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		defer release()

		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "tenant database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
