package rag

import (
	"context"
	"strings"

	"github.com/technova/supportbot/internal/log"
)

// Verdict is the typed outcome of domain classification.
type Verdict int

const (
	// InDomain means retrieval should be attempted.
	InDomain Verdict = iota

	// OutOfDomain means the question is outside the supported policy
	// domain and gets a refusal instead of retrieval.
	OutOfDomain
)

func (v Verdict) String() string {
	if v == OutOfDomain {
		return "OUT_OF_DOMAIN"
	}
	return "IN_DOMAIN"
}

// Classifier decides whether a question falls within the supported policy
// domain. The orchestrator depends on this interface so a stricter
// classifier (constrained output, rule-based) can replace LLMGate without
// touching the state machine.
type Classifier interface {
	Classify(ctx context.Context, question string) (Verdict, error)
}

// negativeTokens are the verdict prefixes treated as OutOfDomain.
var negativeTokens = []string{"NEJ", "NO"}

// LLMGate classifies questions with a single constrained JA/NEJ
// completion call.
//
// Parsing is deliberately biased toward InDomain: only a response whose
// trimmed, uppercased text starts with a negative token refuses; every
// other response, malformed or ambiguous ones included, proceeds to
// retrieval. Attempting an answer is considered cheaper than
// over-refusing.
type LLMGate struct {
	gen    Generator
	logger log.Logger
}

// NewLLMGate creates a completion-backed Classifier.
func NewLLMGate(gen Generator, logger log.Logger) *LLMGate {
	if logger == nil {
		logger = log.NewNop()
	}
	return &LLMGate{gen: gen, logger: logger}
}

// Classify runs the yes/no classification call.
func (g *LLMGate) Classify(ctx context.Context, question string) (Verdict, error) {
	resp, err := g.gen.Generate(ctx, domainPrompt(question))
	if err != nil {
		return InDomain, err
	}

	verdict := parseVerdict(resp)
	g.logger.Debug("domain gate", "verdict", verdict.String(), "raw", strings.TrimSpace(resp))
	return verdict, nil
}

// parseVerdict normalizes the raw completion and checks for a leading
// negative token.
func parseVerdict(resp string) Verdict {
	normalized := strings.ToUpper(strings.TrimSpace(resp))
	for _, token := range negativeTokens {
		if strings.HasPrefix(normalized, token) {
			return OutOfDomain
		}
	}
	return InDomain
}
