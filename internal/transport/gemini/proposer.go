// Package gemini proposes rules through the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/cardquery/internal/domain"
	"github.com/kailas-cloud/cardquery/internal/metrics"
	"github.com/kailas-cloud/cardquery/internal/transport/prompt"
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// Proposer asks a Gemini model for a rule.
type Proposer struct {
	client   *genai.Client
	model    string
	config   *genai.GenerateContentConfig
	provider string
	logger   *zap.Logger
}

// NewProposer creates a Gemini proposer.
func NewProposer(ctx context.Context, cfg *Config) (*Proposer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Proposer{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr(cfg.Temperature),
		},
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}, nil
}

// Propose implements domain.Proposer.
func (p *Proposer) Propose(ctx context.Context, req domain.ProposalRequest) (domain.Proposal, error) {
	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt.User(req)), p.config)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(p.provider, p.model, "error").Inc()
		if ctx.Err() != nil {
			return domain.Proposal{}, ctx.Err()
		}
		return domain.Proposal{}, fmt.Errorf("gemini request failed: %v: %w", err, domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(p.provider, p.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(p.provider, p.model).Observe(duration.Seconds())

	var promptTokens, totalTokens int
	if u := resp.UsageMetadata; u != nil {
		promptTokens = int(u.PromptTokenCount)
		totalTokens = int(u.TotalTokenCount)
		metrics.GenerationTokensTotal.WithLabelValues(p.provider, p.model, "prompt").Add(float64(promptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(p.provider, p.model, "total").Add(float64(totalTokens))
	}

	prop, err := prompt.Parse(resp.Text())
	if err != nil {
		p.logger.Warn("Unparseable proposal", zap.String("provider", p.provider), zap.Error(err))
		return domain.Proposal{}, err
	}
	prop.PromptTokens = promptTokens
	prop.TotalTokens = totalTokens
	return prop, nil
}
