package chi

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domfb "github.com/kailas-cloud/cardquery/internal/domain/feedback"
	domrule "github.com/kailas-cloud/cardquery/internal/domain/rule"
	"github.com/kailas-cloud/cardquery/internal/domain/search/filter"
	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	mineruc "github.com/kailas-cloud/cardquery/internal/usecase/miner"
)

type rangeDTO struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type filtersDTO struct {
	Format    string    `json:"format,omitempty"`
	Identity  string    `json:"identity,omitempty"`
	Rarity    []string  `json:"rarity,omitempty"`
	Price     *rangeDTO `json:"price,omitempty"`
	ManaValue *rangeDTO `json:"manaValue,omitempty"`
}

type translateRequest struct {
	Query     string      `json:"query"`
	SessionID string      `json:"sessionId,omitempty"`
	Filters   *filtersDTO `json:"filters,omitempty"`
}

type searchRequest struct {
	translateRequest
	Page   int    `json:"page,omitempty"`
	Order  string `json:"order,omitempty"`
	Unique string `json:"unique,omitempty"`
}

type searchResponse struct {
	Translation translation.Result `json:"translation"`
	Total       int                `json:"total"`
	HasMore     bool               `json:"hasMore"`
	Cards       []result.Card      `json:"cards"`
}

type feedbackRequest struct {
	OriginalQuery    string `json:"originalQuery"`
	TranslatedQuery  string `json:"translatedQuery,omitempty"`
	IssueDescription string `json:"issueDescription,omitempty"`
}

type processRequest struct {
	FeedbackID string `json:"feedbackId"`
}

type feedbackDTO struct {
	ID               string `json:"id"`
	OriginalQuery    string `json:"originalQuery"`
	TranslatedQuery  string `json:"translatedQuery,omitempty"`
	IssueDescription string `json:"issueDescription,omitempty"`
	Status           string `json:"status"`
	GeneratedRuleID  string `json:"generatedRuleId,omitempty"`
	Reason           string `json:"reason,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type outcomeDTO struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	RuleID        string `json:"ruleId,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	CompiledQuery string `json:"compiledQuery,omitempty"`
}

type ruleDTO struct {
	ID            string  `json:"id"`
	Pattern       string  `json:"pattern"`
	CompiledQuery string  `json:"compiledQuery"`
	Confidence    float64 `json:"confidence"`
	Description   string  `json:"description,omitempty"`
	Source        string  `json:"source"`
	HitCount      int64   `json:"hitCount"`
	UpdatedAt     string  `json:"updatedAt"`
}

type ruleListResponse struct {
	Items  []ruleDTO `json:"items"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type candidateDTO struct {
	Pattern       string  `json:"pattern"`
	CompiledQuery string  `json:"compiledQuery"`
	Confidence    float64 `json:"confidence"`
	Count         int     `json:"count"`
}

type mineResponse struct {
	Scanned    int            `json:"scanned"`
	Candidates []candidateDTO `json:"candidates"`
	Rejected   int            `json:"rejected"`
	Created    int            `json:"created"`
}

type usageResponse struct {
	Period          string `json:"period"`
	PeriodStart     string `json:"periodStart"`
	PeriodEnd       string `json:"periodEnd"`
	Provider        string `json:"provider,omitempty"`
	TokensUsed      int64  `json:"tokensUsed"`
	TokensLimit     int64  `json:"tokensLimit"`
	TokensRemaining int64  `json:"tokensRemaining"`
	Exhausted       bool   `json:"exhausted"`
	ResetsAt        string `json:"resetsAt"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (f *filtersDTO) toDomain() (filter.Filters, error) {
	if f == nil {
		return filter.Filters{}, nil
	}
	price, err := f.Price.toDomain()
	if err != nil {
		return filter.Filters{}, fmt.Errorf("price: %w", err)
	}
	mv, err := f.ManaValue.toDomain()
	if err != nil {
		return filter.Filters{}, fmt.Errorf("manaValue: %w", err)
	}
	return filter.New(f.Format, f.Identity, f.Rarity, price, mv)
}

func (r *rangeDTO) toDomain() (*filter.Range, error) {
	if r == nil {
		return nil, nil
	}
	rg, err := filter.NewRange(r.Min, r.Max)
	if err != nil {
		return nil, err
	}
	return &rg, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
}

func millis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func feedbackToDTO(it domfb.Item) feedbackDTO {
	return feedbackDTO{
		ID:               it.ID(),
		OriginalQuery:    it.OriginalQuery(),
		TranslatedQuery:  it.TranslatedQuery(),
		IssueDescription: it.IssueDescription(),
		Status:           string(it.Status()),
		GeneratedRuleID:  it.GeneratedRuleID(),
		Reason:           it.Reason(),
		CreatedAt:        millis(it.CreatedAt()),
		UpdatedAt:        millis(it.UpdatedAt()),
	}
}

func outcomeToDTO(o feedbackuc.Outcome) outcomeDTO {
	return outcomeDTO{
		ID:            o.ID,
		Status:        string(o.Status),
		RuleID:        o.RuleID,
		Reason:        o.Reason,
		Pattern:       o.Pattern,
		CompiledQuery: o.CompiledQuery,
	}
}

func ruleToDTO(rl domrule.Rule) ruleDTO {
	return ruleDTO{
		ID:            rl.ID(),
		Pattern:       rl.Pattern(),
		CompiledQuery: rl.CompiledQuery(),
		Confidence:    rl.Confidence(),
		Description:   rl.Description(),
		Source:        string(rl.Source()),
		HitCount:      rl.HitCount(),
		UpdatedAt:     millis(rl.UpdatedAt()),
	}
}

func reportToDTO(rep mineruc.Report) mineResponse {
	resp := mineResponse{
		Scanned:    rep.Scanned,
		Candidates: make([]candidateDTO, len(rep.Candidates)),
		Rejected:   rep.Rejected,
		Created:    rep.Created,
	}
	for i, c := range rep.Candidates {
		resp.Candidates[i] = candidateDTO{
			Pattern:       c.Pattern,
			CompiledQuery: c.CompiledQuery,
			Confidence:    c.Confidence,
			Count:         c.Count,
		}
	}
	return resp
}

func usageToDTO(r domusage.Report) usageResponse {
	b := r.Budget()
	return usageResponse{
		Period:          string(r.Period()),
		PeriodStart:     millis(r.PeriodStart()),
		PeriodEnd:       millis(r.PeriodEnd()),
		Provider:        r.Provider(),
		TokensUsed:      r.TokensUsed(),
		TokensLimit:     b.TokensLimit,
		TokensRemaining: b.TokensRemaining,
		Exhausted:       b.Exhausted(),
		ResetsAt:        millis(b.ResetsAt),
	}
}
