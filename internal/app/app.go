// Package app is the composition root shared by the API server and the
// operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/config"
	"github.com/kailas-cloud/cardquery/internal/db"
	"github.com/kailas-cloud/cardquery/internal/db/memory"
	dbRedis "github.com/kailas-cloud/cardquery/internal/db/redis"
	"github.com/kailas-cloud/cardquery/internal/db/sqldb"
	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/metrics"
	budgetrepo "github.com/kailas-cloud/cardquery/internal/repository/budget"
	cacherepo "github.com/kailas-cloud/cardquery/internal/repository/cache"
	fbrepo "github.com/kailas-cloud/cardquery/internal/repository/feedback"
	ratelimitrepo "github.com/kailas-cloud/cardquery/internal/repository/ratelimit"
	rulerepo "github.com/kailas-cloud/cardquery/internal/repository/rule"
	"github.com/kailas-cloud/cardquery/internal/repository/translog"
	"github.com/kailas-cloud/cardquery/internal/translate"
	chiTransport "github.com/kailas-cloud/cardquery/internal/transport/chi"
	"github.com/kailas-cloud/cardquery/internal/transport/gemini"
	"github.com/kailas-cloud/cardquery/internal/transport/openai"
	"github.com/kailas-cloud/cardquery/internal/transport/scryfall"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	"github.com/kailas-cloud/cardquery/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/cardquery/internal/usecase/health"
	mineruc "github.com/kailas-cloud/cardquery/internal/usecase/miner"
	ratelimituc "github.com/kailas-cloud/cardquery/internal/usecase/ratelimit"
	translateuc "github.com/kailas-cloud/cardquery/internal/usecase/translate"
	usageuc "github.com/kailas-cloud/cardquery/internal/usecase/usage"
)

const (
	budgetDailyTTL = 48 * time.Hour
	budgetMonthTTL = 62 * 24 * time.Hour
	sweepInterval  = time.Minute
)

// App holds every wired service.
type App struct {
	Store      db.Store
	SQL        *sqldb.DB
	Search     *scryfall.Client
	Rules      *rulerepo.Repo
	Translator *translateuc.Service
	Feedback   *feedbackuc.Service
	// Processor is nil when no generation provider is configured.
	Processor *feedbackuc.Processor
	Sweeper   *feedbackuc.Sweeper
	Miner     *mineruc.Service
	Limiter   *ratelimituc.Service
	Usage     *usageuc.Service
	Health    *healthuc.Service
}

// New connects the stores and builds the services.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sqldb.Open(ctx, sqldb.Config{
		Driver:       sqldb.Dialect(cfg.SQL.Driver),
		DSN:          cfg.SQL.DSN,
		MaxOpenConns: cfg.SQL.MaxOpenConns,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open sql store: %w", err)
	}
	logger.Info("Connected to databases",
		zap.String("kv_driver", cfg.Database.Driver),
		zap.String("sql_driver", cfg.SQL.Driver),
	)

	a := &App{Store: store, SQL: sqlDB}

	a.Search = scryfall.New(scryfall.Config{
		BaseURL:   cfg.Search.BaseURL,
		Timeout:   config.Seconds(cfg.Search.TimeoutSec),
		UserAgent: cfg.Search.UserAgent,
		Logger:    logger,
	})

	// Repositories
	a.Rules = rulerepo.New(sqlDB)
	cacheRepo := cacherepo.New(store, metrics.TranslationCacheTotal, logger)
	logRepo := translog.New(sqlDB)
	feedbackRepo := fbrepo.New(sqlDB)

	matcher := translateuc.NewRuleMatcher(a.Rules, translateuc.MatcherConfig{
		Fuzzy:    cfg.Rules.Fuzzy,
		MinRatio: cfg.Rules.MinRatio,
		Refresh:  config.Seconds(cfg.Rules.RefreshSec),
	}, logger)

	a.Translator = translateuc.New(
		translate.NewCompiler(), cacheRepo, matcher, logRepo, a.Search,
		translateuc.Config{
			MaxQueryLength: cfg.Limits.MaxQueryLength,
			MaxParams:      cfg.Limits.MaxParams,
			CacheTTL:       config.Seconds(cfg.Cache.TTLSec),
			FeedbackTTL:    config.Seconds(cfg.Cache.FeedbackTTLSec),
			LockTTL:        time.Duration(cfg.Cache.LockTTLMs) * time.Millisecond,
		},
		logger,
	)

	a.Limiter = ratelimituc.New(ratelimitrepo.New(store), ratelimituc.Limits{
		PerKey:     cfg.Limits.PerKey,
		PerSession: cfg.Limits.PerSession,
		Global:     cfg.Limits.Global,
		Window:     config.Seconds(cfg.Limits.WindowSec),
	}, metrics.RateLimitRejectsTotal, logger)

	// Single BudgetTracker shared by the proposer and the usage report.
	var budget *generation.BudgetTracker
	gen := cfg.Generation
	if gen.Provider != "" && (gen.Budget.DailyTokenLimit > 0 || gen.Budget.MonthlyTokenLimit > 0) {
		action := generation.BudgetActionWarn
		if gen.Budget.Action == "reject" {
			action = generation.BudgetActionReject
		}
		budget = generation.NewBudgetTracker(
			gen.Provider, gen.Budget.DailyTokenLimit, gen.Budget.MonthlyTokenLimit, action, logger,
		).WithStore(ctx, budgetrepo.New(store, budgetDailyTTL, budgetMonthTTL))
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker generation.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	proposer, err := buildProposer(ctx, gen, budgetChecker, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Feedback = feedbackuc.New(feedbackRepo, logger)
	if proposer != nil {
		a.Processor = feedbackuc.NewProcessor(
			feedbackRepo, a.Rules, proposer, a.Search, a.Translator,
			feedbackuc.ProcessorConfig{
				ConfidenceFloor:    cfg.Feedback.ConfidenceFloor,
				Timeout:            config.Seconds(cfg.Feedback.TimeoutSec),
				ValidationFailOpen: cfg.Feedback.ValidationFailOpen,
			},
			logger,
		)
	}
	a.Sweeper = feedbackuc.NewSweeper(feedbackRepo, config.Seconds(cfg.Feedback.StaleAfterSec), logger)

	var counter mineruc.Counter
	validateLive := cfg.Miner.ValidateLive == nil || *cfg.Miner.ValidateLive
	if validateLive {
		counter = a.Search
	}
	a.Miner = mineruc.New(logRepo, a.Rules, counter, mineruc.Config{
		Window:             time.Duration(cfg.Miner.WindowDays) * 24 * time.Hour,
		MaxRows:            cfg.Miner.MaxRows,
		MinOccurrences:     cfg.Miner.MinOccurrences,
		MinConfidence:      cfg.Miner.MinConfidence,
		MaxRules:           cfg.Miner.MaxRules,
		ValidateLive:       validateLive,
		ValidationFailOpen: cfg.Feedback.ValidationFailOpen,
	}, logger)

	a.Usage = usageuc.New(budgetReader, gen.Provider)
	a.Health = healthuc.New(store, sqlDB, a.Search)

	return a, nil
}

// Services exposes the wired use cases to the HTTP layer. A missing
// processor stays a nil interface so its route answers 503.
func (a *App) Services() chiTransport.Services {
	svc := chiTransport.Services{
		Translator: a.Translator,
		Feedback:   a.Feedback,
		Miner:      a.Miner,
		Rules:      a.Rules,
		Limiter:    a.Limiter,
		Usage:      a.Usage,
		Health:     a.Health,
	}
	if a.Processor != nil {
		svc.Processor = a.Processor
	}
	return svc
}

// Close releases both stores.
func (a *App) Close() {
	if a.SQL != nil {
		_ = a.SQL.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	var store db.Store
	switch cfg.Driver {
	case "memory":
		mem, err := memory.NewStore(cfg.MemorySize)
		if err != nil {
			return nil, fmt.Errorf("create memory store: %w", err)
		}
		mem.StartSweeper(sweepInterval)
		store = mem
	case "redis", "valkey":
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := store.WaitForReady(ctx, config.Seconds(cfg.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Debug("Key-value store ready", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// buildProposer assembles provider -> instrumented (budget + timeout).
// It returns nil when generation is disabled.
func buildProposer(
	ctx context.Context, cfg config.GenerationConfig,
	budget generation.BudgetChecker, logger *zap.Logger,
) (domain.Proposer, error) {
	var base domain.Proposer
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		base = openai.NewProposer(&openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			User:        "cardquery",
			Provider:    cfg.Provider,
			Logger:      logger,
		})
	case "genai":
		p, err := gemini.NewProposer(ctx, &gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Provider:    cfg.Provider,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai proposer: %w", err)
		}
		base = p
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}

	logger.Info("Rule proposer created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
	)
	return generation.NewInstrumentedProposer(
		base, cfg.Provider, cfg.Model, config.Seconds(cfg.TimeoutSec), budget, logger,
	), nil
}
