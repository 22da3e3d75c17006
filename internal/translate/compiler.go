// Package translate composes the normalizer, the extractor pipeline and the
// renderer into a single pure compile step.
package translate

import (
	"math"
	"strings"

	"github.com/kailas-cloud/cardquery/internal/translate/extract"
	"github.com/kailas-cloud/cardquery/internal/translate/normalize"
	"github.com/kailas-cloud/cardquery/internal/translate/render"
)

// Compiled is the outcome of compiling one request.
type Compiled struct {
	Normalized  string
	Query       string
	Explanation string
	Confidence  float64
	Warnings    []string
}

// Compiler runs normalize -> extract -> render. It holds no mutable state
// and is safe for concurrent use.
type Compiler struct {
	steps []extract.Step
}

// NewCompiler creates a compiler using the default extractor pipeline.
func NewCompiler() *Compiler {
	return &Compiler{steps: extract.Pipeline()}
}

// Compile translates a raw request.
func (c *Compiler) Compile(input string) Compiled {
	normalized := normalize.Normalize(input)
	ir := extract.RunWith(c.steps, normalized)
	res := render.Render(ir)

	return Compiled{
		Normalized:  normalized,
		Query:       res.Query,
		Explanation: render.Explain(ir),
		Confidence:  confidence(normalized, ir.Remaining, res),
		Warnings:    res.Warnings,
	}
}

// confidence scores how much of the request was understood: the share of
// meaningful words consumed by extractors, lowered by each conflict
// warning. A request where nothing was consumed is a low-confidence name
// search.
func confidence(normalized, remaining string, res render.Result) float64 {
	if res.Query == "" {
		return 0
	}
	total := len(strings.Fields(extract.StripFillers(normalized)))
	left := len(strings.Fields(remaining))
	if total == 0 || left >= total {
		return 0.2
	}
	score := 0.5 + 0.5*float64(total-left)/float64(total)

	conflicts := len(res.Warnings)
	if remaining != "" {
		conflicts-- // the residual warning is already priced in
	}
	score -= 0.05 * float64(max(conflicts, 0))

	score = math.Max(0.1, math.Min(1, score))
	return math.Round(score*100) / 100
}
