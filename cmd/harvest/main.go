// Command harvest collects the Scopus publications of one institution,
// enriches them with Crossref references and citing documents, and writes
// them to a JSON file. It is configured through harvest.yaml, a .env file
// and HARVEST_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/bibharvest/pkg/cache"
	"github.com/Sternrassler/bibharvest/pkg/client"
	"github.com/Sternrassler/bibharvest/pkg/config"
	"github.com/Sternrassler/bibharvest/pkg/crossref"
	"github.com/Sternrassler/bibharvest/pkg/enrich"
	"github.com/Sternrassler/bibharvest/pkg/logging"
	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/Sternrassler/bibharvest/pkg/output"
	"github.com/Sternrassler/bibharvest/pkg/pagination"
	"github.com/Sternrassler/bibharvest/pkg/ratelimit"
	"github.com/Sternrassler/bibharvest/pkg/scopus"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redisPingTimeout = 5 * time.Second

	// quotaReportMaxAge is how old the last quota headers may be to still be
	// reported after a run.
	quotaReportMaxAge = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	logging.Setup(logging.DefaultConfig())

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Harvest failed")
		os.Exit(1)
	}
}

// run wires the clients from cfg, harvests and persists the records. Only
// setup and write failures are returned; a run cut short by an API error or
// cancellation still persists what it collected.
func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger("harvest")

	if cfg.Metrics.Addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if _, _, err := metrics.Serve(metricsCtx, cfg.Metrics.Addr); err != nil {
			return err
		}
	}

	var responseCache client.ResponseCache
	if cfg.CacheEnabled() {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, continuing without cache")
		} else {
			defer rdb.Close()
			responseCache = cache.NewManager(rdb)
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		}
	}

	tracker := ratelimit.NewTracker(logging.NewLogger("ratelimit"))
	sc, err := scopus.New(scopus.Config{
		BaseURL:   cfg.Scopus.BaseURL,
		APIKey:    cfg.Scopus.APIKey,
		UserAgent: cfg.UserAgent,
		Throttle:  ratelimit.NewThrottle(cfg.RequestInterval),
		Tracker:   tracker,
		Cache:     responseCache,
		CacheTTL:  cfg.Cache.TTL,
	})
	if err != nil {
		return fmt.Errorf("creating scopus client: %w", err)
	}

	var references pagination.ReferenceEnricher
	if cfg.Enrich.References {
		cr, err := crossref.New(crossref.Config{
			BaseURL:   cfg.Crossref.BaseURL,
			UserAgent: cfg.UserAgent,
			Mailto:    cfg.Crossref.Mailto,
			Timeout:   cfg.ReferenceTimeout,
			Cache:     responseCache,
			CacheTTL:  cfg.Cache.TTL,
		})
		if err != nil {
			return fmt.Errorf("creating crossref client: %w", err)
		}
		references = enrich.NewReferences(cr, cfg.ReferenceTimeout)
	}

	var citations pagination.CitationEnricher
	if cfg.Enrich.Citations {
		citations = enrich.NewCitations(sc, cfg.DiagnosticPath)
	}

	logger.Info().
		Str("institution", cfg.Institution).
		Int("start", cfg.Start).
		Int("count", cfg.PageSize).
		Bool("references", cfg.Enrich.References).
		Bool("citations", cfg.Enrich.Citations).
		Msg("Starting harvest")

	driver := pagination.NewDriver(sc, references, citations, pagination.Config{MaxRecords: cfg.MaxRecords})
	result := driver.Run(ctx, cfg.Institution, cfg.PageSize, cfg.Start)
	tracker.Report(quotaReportMaxAge)

	if _, err := output.Persist(result.Records, cfg.OutputPath); err != nil {
		return fmt.Errorf("persisting records: %w", err)
	}
	return nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
