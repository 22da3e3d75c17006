// Package prompt builds the rule generation prompt and parses the model's
// JSON answer. Shared by every generation provider.
package prompt

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/domain"
)

// System is the instruction sent with every proposal request.
const System = `You translate natural-language Magic: The Gathering card searches into Scryfall search syntax.
Answer with a single JSON object and nothing else:
{"pattern": string, "compiled_query": string, "confidence": number between 0 and 1, "description": string}
"pattern" is the user's request in lowercase with filler words removed.
"compiled_query" must be valid Scryfall syntax.
Prefer community oracle tags (otag:) over oracle text searches (o:) whenever a tag covers the concept.
Use art tags (atag:) only for requests about artwork.
Lower the confidence when the request is ambiguous.`

// User renders the request-specific part of the prompt.
func User(req domain.ProposalRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search request: %q\n", req.OriginalQuery)
	if req.NormalizedQuery != "" && req.NormalizedQuery != req.OriginalQuery {
		fmt.Fprintf(&b, "Normalized request: %q\n", req.NormalizedQuery)
	}
	if req.TranslatedQuery != "" {
		fmt.Fprintf(&b, "Current translation: %s\n", req.TranslatedQuery)
	}
	if req.IssueDescription != "" {
		fmt.Fprintf(&b, "What the user says is wrong: %s\n", req.IssueDescription)
	}
	if req.Retry {
		b.WriteString("An earlier fix for this request did not satisfy users.")
		if req.ExistingQuery != "" {
			fmt.Fprintf(&b, " The current rule compiles to %s; propose something different.", req.ExistingQuery)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type answer struct {
	Pattern       string   `json:"pattern"`
	CompiledQuery string   `json:"compiled_query"`
	Confidence    *float64 `json:"confidence"`
	Description   string   `json:"description"`
}

// Parse decodes a model answer. Code fences around the JSON are tolerated
// and confidence is clamped to [0,1].
func Parse(text string) (domain.Proposal, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		text = text[i : j+1]
	}

	var a answer
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return domain.Proposal{}, fmt.Errorf("decode proposal: %v: %w", err, domain.ErrGenerationProviderError)
	}
	a.CompiledQuery = strings.TrimSpace(a.CompiledQuery)
	if a.CompiledQuery == "" {
		return domain.Proposal{}, fmt.Errorf("proposal without compiled_query: %w", domain.ErrGenerationProviderError)
	}
	if a.Confidence == nil || math.IsNaN(*a.Confidence) {
		return domain.Proposal{}, fmt.Errorf("proposal without confidence: %w", domain.ErrGenerationProviderError)
	}
	return domain.Proposal{
		Pattern:       strings.ToLower(strings.TrimSpace(a.Pattern)),
		CompiledQuery: a.CompiledQuery,
		Confidence:    math.Max(0, math.Min(1, *a.Confidence)),
		Description:   strings.TrimSpace(a.Description),
	}, nil
}
