package result

// Card is one search hit as returned to clients.
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

// Page is one page of search results.
type Page struct {
	total   int
	hasMore bool
	cards   []Card
}

// NewPage creates a result page.
func NewPage(total int, hasMore bool, cards []Card) Page {
	if cards == nil {
		cards = []Card{}
	}
	return Page{total: total, hasMore: hasMore, cards: cards}
}

// Total returns the number of matching cards across all pages.
func (p *Page) Total() int { return p.total }

// HasMore reports whether a next page exists.
func (p *Page) HasMore() bool { return p.hasMore }

// Cards returns the cards on this page.
func (p *Page) Cards() []Card { return p.cards }
