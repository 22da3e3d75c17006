package scryfall

import (
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain/search/result"
)

type listResponse struct {
	TotalCards int        `json:"total_cards"`
	HasMore    bool       `json:"has_more"`
	Data       []cardJSON `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

type imageURIs struct {
	Normal string `json:"normal"`
}

type cardFace struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost"`
	OracleText string     `json:"oracle_text"`
	ImageURIs  *imageURIs `json:"image_uris"`
}

type cardJSON struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ManaCost    string            `json:"mana_cost"`
	TypeLine    string            `json:"type_line"`
	OracleText  string            `json:"oracle_text"`
	Colors      []string          `json:"colors"`
	Set         string            `json:"set"`
	Rarity      string            `json:"rarity"`
	ImageURIs   *imageURIs        `json:"image_uris"`
	CardFaces   []cardFace        `json:"card_faces"`
	Prices      map[string]string `json:"prices"`
	ScryfallURI string            `json:"scryfall_uri"`
}

// toDomain flattens double-faced cards onto their front face.
func (c cardJSON) toDomain() result.Card {
	card := result.Card{
		ID:         c.ID,
		Name:       c.Name,
		ManaCost:   c.ManaCost,
		TypeLine:   c.TypeLine,
		OracleText: c.OracleText,
		Colors:     c.Colors,
		SetCode:    c.Set,
		Rarity:     c.Rarity,
		PriceUSD:   c.Prices["usd"],
		URI:        c.ScryfallURI,
	}
	if c.ImageURIs != nil {
		card.ImageURI = c.ImageURIs.Normal
	}
	if len(c.CardFaces) == 0 {
		return card
	}

	front := c.CardFaces[0]
	if card.ImageURI == "" && front.ImageURIs != nil {
		card.ImageURI = front.ImageURIs.Normal
	}
	if card.ManaCost == "" {
		card.ManaCost = front.ManaCost
	}
	if card.OracleText == "" {
		texts := make([]string, 0, len(c.CardFaces))
		for _, f := range c.CardFaces {
			if f.OracleText != "" {
				texts = append(texts, f.OracleText)
			}
		}
		card.OracleText = strings.Join(texts, "\n//\n")
	}
	return card
}
