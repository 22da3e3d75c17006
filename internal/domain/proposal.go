package domain

import "context"

// Proposer asks a generative backend for a rule that fixes a reported
// translation. Implementations prefer community tags (otag:) over raw
// oracle text searches.
type Proposer interface {
	Propose(ctx context.Context, req ProposalRequest) (Proposal, error)
}

// ProposalRequest describes the translation the user reported.
type ProposalRequest struct {
	OriginalQuery    string
	NormalizedQuery  string
	TranslatedQuery  string
	IssueDescription string
	// Retry is set when earlier feedback for the same pattern already
	// produced a rule that did not satisfy the user.
	Retry         bool
	ExistingQuery string
}

// Proposal is a candidate rule and the tokens spent producing it.
type Proposal struct {
	Pattern       string
	CompiledQuery string
	Confidence    float64
	Description   string
	PromptTokens  int
	TotalTokens   int
}
