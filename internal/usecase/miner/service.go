// Package miner promotes frequently repeated high-confidence translations
// into rules.
package miner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	"github.com/kailas-cloud/cardquery/internal/metrics"
)

// Config bounds one mining run.
type Config struct {
	Window         time.Duration
	MaxRows        int
	MinOccurrences int
	MinConfidence  float64
	MaxRules       int
	// ValidateLive runs every candidate upstream before insert.
	ValidateLive bool
	// ValidationFailOpen keeps candidates when the search API is unreachable.
	ValidationFailOpen bool
	Concurrency        int
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = 30 * 24 * time.Hour
	}
	if c.MaxRows <= 0 {
		c.MaxRows = 10000
	}
	if c.MinOccurrences <= 0 {
		c.MinOccurrences = 3
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.8
	}
	if c.MaxRules <= 0 {
		c.MaxRules = 25
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Candidate is a bucket of equivalent requests.
type Candidate struct {
	Key           string
	Pattern       string
	CompiledQuery string
	Confidence    float64
	Count         int
}

// Report summarizes one run.
type Report struct {
	Scanned    int
	Candidates []Candidate
	Rejected   int
	Created    int
}

// Service mines translation logs.
type Service struct {
	logs    LogReader
	rules   RuleRepo
	counter Counter
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a miner. counter may be nil, which disables live validation.
func New(logs LogReader, rules RuleRepo, counter Counter, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		logs:    logs,
		rules:   rules,
		counter: counter,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

// Run mines the configured window and inserts the promoted rules.
func (s *Service) Run(ctx context.Context) (Report, error) {
	return s.run(ctx, false)
}

// DryRun reports what Run would insert without writing.
func (s *Service) DryRun(ctx context.Context) (Report, error) {
	return s.run(ctx, true)
}

func (s *Service) run(ctx context.Context, dry bool) (Report, error) {
	entries, err := s.logs.ListSince(ctx, s.now().Add(-s.cfg.Window), s.cfg.MaxRows)
	if err != nil {
		return Report{}, fmt.Errorf("read translation logs: %w", err)
	}
	patterns, err := s.rules.ActivePatterns(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read rule patterns: %w", err)
	}

	candidates := Aggregate(entries, patterns, s.cfg.MinOccurrences, s.cfg.MinConfidence)
	if len(candidates) > s.cfg.MaxRules {
		candidates = candidates[:s.cfg.MaxRules]
	}
	rep := Report{Scanned: len(entries)}

	if s.cfg.ValidateLive && s.counter != nil {
		kept, err := s.validate(ctx, candidates)
		if err != nil {
			return rep, err
		}
		rep.Rejected = len(candidates) - len(kept)
		candidates = kept
	}
	rep.Candidates = candidates

	if dry || len(candidates) == 0 {
		return rep, nil
	}

	rules := make([]domrule.Rule, 0, len(candidates))
	for _, c := range candidates {
		rl, err := domrule.New(c.Pattern, c.CompiledQuery, c.Confidence,
			fmt.Sprintf("mined from %d requests", c.Count), domrule.SourceMiner, "")
		if err != nil {
			s.logger.Warn("Skipping invalid candidate", zap.String("pattern", c.Pattern), zap.Error(err))
			continue
		}
		rules = append(rules, rl)
	}
	created, err := s.rules.InsertMany(ctx, rules)
	if err != nil {
		return rep, fmt.Errorf("insert mined rules: %w", err)
	}
	rep.Created = created
	metrics.MinerRulesCreatedTotal.Add(float64(created))

	s.logger.Info("Pattern mining finished",
		zap.Int("scanned", rep.Scanned),
		zap.Int("candidates", len(rep.Candidates)),
		zap.Int("rejected", rep.Rejected),
		zap.Int("created", rep.Created),
	)
	return rep, nil
}

// validate keeps the candidates whose query returns cards. Order is preserved.
func (s *Service) validate(ctx context.Context, candidates []Candidate) ([]Candidate, error) {
	keep := make([]bool, len(candidates))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			_, err := s.counter.Count(gctx, c.CompiledQuery)
			ok := err == nil
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrUpstreamNoResults), errors.Is(err, domain.ErrInvalidInput):
				s.logger.Info("Dropping mined candidate", zap.String("pattern", c.Pattern), zap.Error(err))
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				ok = s.cfg.ValidationFailOpen
				s.logger.Warn("Live validation unavailable", zap.String("pattern", c.Pattern),
					zap.Bool("kept", ok), zap.Error(err))
			}
			mu.Lock()
			keep[i] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Aggregate buckets entries by order-independent key, keeping the
// highest-confidence compiled query per bucket. Buckets below the
// thresholds or already covered by a rule are dropped. The result is
// sorted by count descending, then key.
func Aggregate(entries []translation.LogEntry, patterns []string, minCount int, minConfidence float64) []Candidate {
	covered := make(map[string]bool, len(patterns)*2)
	for _, p := range patterns {
		covered[p] = true
		covered[domrule.PatternKey(p)] = true
	}

	buckets := make(map[string]*Candidate)
	for _, e := range entries {
		if e.Source == translation.SourceRule || e.Normalized == "" || e.Compiled == "" {
			continue
		}
		key := domrule.PatternKey(e.Normalized)
		b, ok := buckets[key]
		if !ok {
			b = &Candidate{Key: key}
			buckets[key] = b
		}
		b.Count++
		if e.Confidence > b.Confidence || b.CompiledQuery == "" {
			b.Confidence = e.Confidence
			b.CompiledQuery = e.Compiled
			b.Pattern = e.Normalized
		}
	}

	out := make([]Candidate, 0, len(buckets))
	for key, b := range buckets {
		if b.Count < minCount || b.Confidence < minConfidence {
			continue
		}
		if covered[key] || covered[b.Pattern] {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
