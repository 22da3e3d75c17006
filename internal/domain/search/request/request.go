package request

import (
	"fmt"

	"github.com/kailas-cloud/cardquery/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the longest compiled query sent upstream.
	MaxQueryLength = 1000
	DefaultPage    = 1
	MaxPage        = 100
)

var orders = map[string]bool{
	"name": true, "set": true, "released": true, "rarity": true, "color": true,
	"usd": true, "cmc": true, "power": true, "toughness": true, "edhrec": true,
}

// Request is a validated upstream card search.
type Request struct {
	query  string
	page   int
	order  string
	unique mode.Mode
}

// New validates and normalizes search parameters.
// Defaults: page=1, unique=cards, order left to the upstream.
func New(query string, page int, order string, unique mode.Mode) (Request, error) {
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if page <= 0 {
		page = DefaultPage
	}
	if page > MaxPage {
		return Request{}, fmt.Errorf("page must be at most %d", MaxPage)
	}
	if order != "" && !orders[order] {
		return Request{}, fmt.Errorf("invalid order: %q", order)
	}
	if unique == "" {
		unique = mode.Cards
	}
	if !unique.IsValid() {
		return Request{}, fmt.Errorf("invalid unique mode: %q", unique)
	}
	return Request{query: query, page: page, order: order, unique: unique}, nil
}

// Query returns the compiled search query.
func (r *Request) Query() string { return r.query }

// Page returns the 1-based result page.
func (r *Request) Page() int { return r.page }

// Order returns the sort field, empty for upstream default.
func (r *Request) Order() string { return r.order }

// Unique returns the printing collapse mode.
func (r *Request) Unique() mode.Mode { return r.unique }
