package rag

import (
	"context"

	"github.com/technova/supportbot/internal/log"
)

// Synthesizer produces the user-facing answer text: either a grounded
// answer with footnote markers or a refusal. Each method is one
// completion call; failures propagate unchanged.
type Synthesizer struct {
	gen    Generator
	logger log.Logger
}

// NewSynthesizer creates a Synthesizer on the given generator.
func NewSynthesizer(gen Generator, logger log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Synthesizer{gen: gen, logger: logger}
}

// Answer produces a grounded answer from the assembled context. The model
// is instructed to use only the context, emit [n] footnotes matching the
// context numbering, and fall back to the support address when the
// context does not cover the question.
func (s *Synthesizer) Answer(ctx context.Context, question, contextBlock string) (string, error) {
	answer, err := s.gen.Generate(ctx, qaPrompt(question, contextBlock))
	if err != nil {
		return "", err
	}
	s.logger.Debug("answer synthesized", "answer_length", len(answer))
	return answer, nil
}

// Refuse produces an apologetic, scope-explaining message for an
// out-of-domain question. No retrieval is involved.
func (s *Synthesizer) Refuse(ctx context.Context, question string) (string, error) {
	refusal, err := s.gen.Generate(ctx, refusalPrompt(question))
	if err != nil {
		return "", err
	}
	s.logger.Debug("refusal synthesized")
	return refusal, nil
}
