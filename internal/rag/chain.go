package rag

import (
	"context"
	"strings"

	"github.com/technova/supportbot/internal/knowledge"
	"github.com/technova/supportbot/internal/log"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 6

// Turn is one conversation message. The chain reads only the most recent
// user turn as the active question; earlier turns are accepted but unused.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Citation points a footnote marker back to the retrieved chunk it was
// built from. ID is 1-based and matches the chunk's position in the
// context block.
type Citation struct {
	ID      int    `json:"id"`
	Section string `json:"section"`
	Heading string `json:"heading"`
	Source  string `json:"source"`
}

// Result is the answer returned to the caller. Citations is empty (never
// nil) whenever no retrieval occurred.
type Result struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// Generator is the text-completion capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder is the text-embedding capability.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the nearest-neighbor lookup over stored chunk embeddings.
type Index interface {
	Search(ctx context.Context, embedding []float32, topK int32) ([]knowledge.Retrieved, error)
}

// Chain orchestrates one question through gate, retrieval and synthesis.
// It holds no per-request state and is safe for concurrent use as long as
// its collaborators are.
type Chain struct {
	gate     Classifier
	embedder Embedder
	index    Index
	synth    *Synthesizer
	topK     int32
	logger   log.Logger
}

// NewChain wires the query pipeline. topK <= 0 falls back to DefaultTopK.
func NewChain(gate Classifier, embedder Embedder, index Index, synth *Synthesizer, topK int, logger log.Logger) *Chain {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Chain{
		gate:     gate,
		embedder: embedder,
		index:    index,
		synth:    synth,
		topK:     int32(topK),
		logger:   logger,
	}
}

// Ask answers the most recent user question in the conversation.
//
// An empty question short-circuits to a fixed prompt-for-question response
// without any external call. Out-of-domain questions get a refusal and no
// retrieval. Otherwise the question is embedded, the top-K chunks are
// retrieved and formatted, and a grounded answer is synthesized with
// positional citations covering every retrieved chunk. Any failure along
// the way aborts the whole request.
func (c *Chain) Ask(ctx context.Context, turns []Turn) (Result, error) {
	question := lastUserQuestion(turns)
	if question == "" {
		return Result{Text: msgNeedQuestion, Citations: []Citation{}}, nil
	}

	verdict, err := c.gate.Classify(ctx, question)
	if err != nil {
		return Result{}, err
	}

	if verdict == OutOfDomain {
		c.logger.Debug("question refused by domain gate")
		refusal, err := c.synth.Refuse(ctx, question)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: refusal, Citations: []Citation{}}, nil
	}

	vec, err := c.embedder.Embed(ctx, question)
	if err != nil {
		return Result{}, err
	}

	docs, err := c.index.Search(ctx, vec, c.topK)
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("chunks retrieved", "count", len(docs))

	answer, err := c.synth.Answer(ctx, question, FormatContext(docs))
	if err != nil {
		return Result{}, err
	}

	return Result{Text: answer, Citations: BuildCitations(docs)}, nil
}

// lastUserQuestion extracts the trimmed content of the most recent
// user-role turn, or "" when none exists.
func lastUserQuestion(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return strings.TrimSpace(turns[i].Content)
		}
	}
	return ""
}
