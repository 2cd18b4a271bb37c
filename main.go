package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	apirest "github.com/kasuganosora/raiderdex/api/rest"
	"github.com/kasuganosora/raiderdex/cache"
	"github.com/kasuganosora/raiderdex/cache/sqlstore"
	"github.com/kasuganosora/raiderdex/catalog"
	"github.com/kasuganosora/raiderdex/config"
	"github.com/kasuganosora/raiderdex/crossref"
	dbadapter "github.com/kasuganosora/raiderdex/db"
	"github.com/kasuganosora/raiderdex/fetch"
	mw "github.com/kasuganosora/raiderdex/middleware"
	"github.com/kasuganosora/raiderdex/model"
	"github.com/kasuganosora/raiderdex/scheduler"
	"github.com/kasuganosora/raiderdex/search"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const sqlCacheSweepInterval = 10 * time.Minute

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()
	if *cfgPath == "" && flag.NArg() > 0 {
		*cfgPath = flag.Arg(0)
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database (sql cache backend only) ----
	cacheCfg := cache.CacheConfig(cfg.Cache)
	var db *gorm.DB
	if cache.ResolveBackend(cacheCfg) == cache.BackendSQL {
		db, err = dbadapter.Open(cfg.Database)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))
	}

	// ---- Cache store ----
	primaryCache, err := cache.NewCache(cacheCfg, db)
	if err != nil {
		logger.Warn("cache backend unavailable, using in-process fallback", zap.Error(err))
		primaryCache = nil
	}
	store := cache.NewStore(ctx, primaryCache, logger,
		cache.WithKeyPrefix(cfg.Cache.KeyPrefix),
		cache.WithRetention(cfg.Cache.Retention),
		cache.WithMaxEntryBytes(cfg.Cache.MaxEntryBytes),
	)
	defer store.Close()
	logger.Info("Cache initialized",
		zap.String("backend", cache.ResolveBackend(cacheCfg)),
		zap.String("store", store.Backend()))

	// ---- Fetch services ----
	up := cfg.Upstream
	primary := fetch.NewPrimary(fetch.PrimaryConfig{
		Client:    clientConfig(up.Primary),
		PageLimit: up.Primary.PageLimit,
		MaxPages:  up.Primary.MaxPages,
		TTL: fetch.PrimaryTTL{
			Items:       cfg.TTL.Items,
			Arcs:        cfg.TTL.Arcs,
			Quests:      cfg.TTL.Quests,
			Traders:     cfg.TTL.Traders,
			EventTimers: cfg.TTL.EventTimers,
		},
	}, store, logger)
	secondary := fetch.NewSecondary(fetch.SecondaryConfig{
		Client: clientConfig(up.Secondary),
		TTL: fetch.SecondaryTTL{
			Items:   cfg.TTL.SecondaryItems,
			Details: cfg.TTL.SecondaryDetails,
		},
	}, store, logger)

	bucketer := catalog.NewBucketer(logger)
	resolver := crossref.NewResolver(secondary, up.Secondary.IconBaseURL, logger)
	index := search.NewIndex(search.PrimarySources(primary, up.Primary.IconBaseURL), cfg.Search.DefaultLimit, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	warmup := func(force bool) scheduler.TaskFn {
		return func(ctx context.Context) error {
			res := primary.PrefetchAll(ctx, force).Merge(secondary.PrefetchAll(ctx, force))
			if res.OK() {
				return nil
			}
			failed := make([]string, len(res.Failed))
			for i, f := range res.Failed {
				failed[i] = f.Dataset
			}
			return fmt.Errorf("warmup failed for %s", strings.Join(failed, ", "))
		}
	}
	if cfg.Warmup.BootDelay > 0 {
		bootWarmup := warmup(false)
		sched.AddDelay("boot_warmup", cfg.Warmup.BootDelay, func(ctx context.Context) error {
			err := bootWarmup(ctx)
			if _, ierr := index.Build(ctx, false); ierr != nil {
				err = errors.Join(err, ierr)
			}
			return err
		})
	}
	if cfg.Warmup.Interval > 0 {
		sched.AddTicker("cache_warmup", cfg.Warmup.Interval, warmup(true))
		if cfg.Warmup.RebuildIndex {
			sched.AddTicker("search_rebuild", cfg.Warmup.Interval, func(ctx context.Context) error {
				_, err := index.Build(ctx, true)
				return err
			})
		}
	}
	if sc, ok := primaryCache.(*sqlstore.SQLCache); ok {
		sched.AddTicker("sql_cache_sweep", sqlCacheSweepInterval, func(ctx context.Context) error {
			n, err := sc.DeleteExpired(ctx)
			if err == nil && n > 0 {
				logger.Info("sql cache sweep", zap.Int64("deleted", n))
			}
			return err
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", apirest.Health)

	api := r.Group("/api")
	apirest.RegisterRoutes(api,
		apirest.NewCatalogHandler(primary, resolver, bucketer, up.Primary.IconBaseURL, logger),
		apirest.NewSearchHandler(index, logger))

	adminG := api.Group("/admin")
	adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs), apirest.AdminAuth(cfg.Server.AdminKey))
	apirest.RegisterAdminRoutes(adminG, apirest.NewAdminHandler(apirest.AdminDeps{
		Primary:   primary,
		Secondary: secondary,
		Store:     store,
		Index:     index,
		Resolver:  resolver,
		Bucketer:  bucketer,
		Scheduler: sched,
	}, logger))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}

func clientConfig(p config.ProviderConfig) fetch.ClientConfig {
	return fetch.ClientConfig{
		BaseURL:      p.BaseURL,
		Timeout:      p.Timeout,
		RetryCount:   p.RetryCount,
		RateLimitRPS: p.RateLimitRPS,
	}
}
