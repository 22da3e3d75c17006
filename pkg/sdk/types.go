package cardquery

// Source tells where a translation came from.
type Source string

// Translation sources.
const (
	SourceCache    Source = "cache"
	SourceRule     Source = "rule"
	SourcePipeline Source = "pipeline"
	SourceFallback Source = "fallback"
)

// Translation is a compiled search.
type Translation struct {
	Query           string   `json:"query"`
	NormalizedQuery string   `json:"normalizedQuery"`
	Compiled        string   `json:"compiled"`
	Explanation     string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
	Source          Source   `json:"source"`
	Cached          bool     `json:"cached"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Range bounds a numeric filter. Nil bounds are open.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Filters narrow a translated query.
type Filters struct {
	Format    string   `json:"format,omitempty"`
	Identity  string   `json:"identity,omitempty"`
	Rarity    []string `json:"rarity,omitempty"`
	Price     *Range   `json:"price,omitempty"`
	ManaValue *Range   `json:"manaValue,omitempty"`
}

// SearchOptions control result paging and ordering.
type SearchOptions struct {
	Page   int
	Order  string
	Unique string
}

// Card is one search hit.
type Card struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ManaCost   string   `json:"mana_cost,omitempty"`
	TypeLine   string   `json:"type_line"`
	OracleText string   `json:"oracle_text,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	SetCode    string   `json:"set"`
	Rarity     string   `json:"rarity"`
	ImageURI   string   `json:"image_uri,omitempty"`
	PriceUSD   string   `json:"price_usd,omitempty"`
	URI        string   `json:"uri,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Translation Translation `json:"translation"`
	Total       int         `json:"total"`
	HasMore     bool        `json:"hasMore"`
	Cards       []Card      `json:"cards"`
}

// Feedback reports a bad translation.
type Feedback struct {
	OriginalQuery    string `json:"originalQuery"`
	TranslatedQuery  string `json:"translatedQuery,omitempty"`
	IssueDescription string `json:"issueDescription,omitempty"`
}

// FeedbackReceipt acknowledges a submitted report.
type FeedbackReceipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FeedbackItem is the processing state of a report.
type FeedbackItem struct {
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

// FeedbackOutcome is the result of processing one report.
type FeedbackOutcome struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	RuleID        string `json:"ruleId,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Pattern       string `json:"pattern,omitempty"`
	CompiledQuery string `json:"compiledQuery,omitempty"`
}

// Rule is a learned translation.
type Rule struct {
	ID            string  `json:"id"`
	Pattern       string  `json:"pattern"`
	CompiledQuery string  `json:"compiledQuery"`
	Confidence    float64 `json:"confidence"`
	Description   string  `json:"description,omitempty"`
	Source        string  `json:"source"`
	HitCount      int64   `json:"hitCount"`
	UpdatedAt     string  `json:"updatedAt"`
}

// Usage is generation token usage for a period.
type Usage struct {
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

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

type translateBody struct {
	Query     string   `json:"query"`
	SessionID string   `json:"sessionId,omitempty"`
	Filters   *Filters `json:"filters,omitempty"`
}

type searchBody struct {
	translateBody
	Page   int    `json:"page,omitempty"`
	Order  string `json:"order,omitempty"`
	Unique string `json:"unique,omitempty"`
}

type errorBody struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	RetryAfter int          `json:"retry_after,omitempty"`
}
