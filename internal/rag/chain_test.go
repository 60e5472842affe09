package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/technova/supportbot/internal/knowledge"
	"github.com/technova/supportbot/internal/testutil"
)

// chainFixture wires a Chain onto fresh mocks. The generator answers JA
// to the gate prompt and returns answerText for the grounded-answer
// prompt; override rules on the returned mocks to change behavior.
func chainFixture(rows []knowledge.Retrieved, answerText string) (*Chain, *testutil.MockGenerator, *testutil.MockEmbedder, *testutil.MockIndex) {
	gen := testutil.NewMockGenerator("JA")
	gen.AddResponse("KONTEKST", answerText)
	gen.AddResponse("Du svarar bara på frågor", "Tyvärr kan jag inte hjälpa med det.")

	emb := testutil.NewMockEmbedder([]float32{0.1, 0.2, 0.3})
	idx := testutil.NewMockIndex(rows)
	chain := NewChain(NewLLMGate(gen, nil), emb, idx, NewSynthesizer(gen, nil), 0, nil)
	return chain, gen, emb, idx
}

func TestChain_NoQuestion(t *testing.T) {
	tests := []struct {
		name  string
		turns []Turn
	}{
		{name: "nil turns", turns: nil},
		{name: "empty turns", turns: []Turn{}},
		{name: "assistant only", turns: []Turn{{Role: RoleAssistant, Content: "Hej! Hur kan jag hjälpa?"}}},
		{name: "whitespace question", turns: []Turn{{Role: RoleUser, Content: "   \n\t"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, gen, emb, idx := chainFixture(nil, "svar")

			res, err := chain.Ask(context.Background(), tt.turns)
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if res.Text != msgNeedQuestion {
				t.Errorf("Text = %q, want %q", res.Text, msgNeedQuestion)
			}
			if res.Citations == nil || len(res.Citations) != 0 {
				t.Errorf("Citations = %#v, want empty non-nil slice", res.Citations)
			}
			if gen.Calls() != 0 || emb.Calls() != 0 || idx.SearchCalls() != 0 {
				t.Errorf("external calls made: gen=%d emb=%d search=%d, want none",
					gen.Calls(), emb.Calls(), idx.SearchCalls())
			}
		})
	}
}

func TestChain_OutOfDomain(t *testing.T) {
	chain, gen, emb, idx := chainFixture(retrievedFixture(), "svar")
	gen.AddResponse("JA eller NEJ", "NEJ")

	res, err := chain.Ask(context.Background(), []Turn{
		{Role: RoleUser, Content: "Vad är huvudstaden i Frankrike?"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Text != "Tyvärr kan jag inte hjälpa med det." {
		t.Errorf("Text = %q, want refusal", res.Text)
	}
	if res.Citations == nil || len(res.Citations) != 0 {
		t.Errorf("Citations = %#v, want empty non-nil slice", res.Citations)
	}
	// A refused question must never reach the index or the embedder.
	if emb.Calls() != 0 {
		t.Errorf("embedder calls = %d, want 0", emb.Calls())
	}
	if idx.SearchCalls() != 0 {
		t.Errorf("search calls = %d, want 0", idx.SearchCalls())
	}
	if gen.Calls() != 2 {
		t.Errorf("generator calls = %d, want 2 (gate + refusal)", gen.Calls())
	}
}

func TestChain_InDomain(t *testing.T) {
	rows := retrievedFixture()
	chain, gen, emb, idx := chainFixture(rows, "Vi levererar inom 3 dagar [1].")

	res, err := chain.Ask(context.Background(), []Turn{
		{Role: RoleUser, Content: "Har ni fri frakt?"},
		{Role: RoleAssistant, Content: "Ja, över 499 kr."},
		{Role: RoleUser, Content: "Hur lång är leveranstiden?"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if res.Text != "Vi levererar inom 3 dagar [1]." {
		t.Errorf("Text = %q", res.Text)
	}
	if len(res.Citations) != len(rows) {
		t.Fatalf("len(Citations) = %d, want %d", len(res.Citations), len(rows))
	}
	for i, c := range res.Citations {
		if c.ID != i+1 {
			t.Errorf("Citations[%d].ID = %d, want %d", i, c.ID, i+1)
		}
	}

	// Only the most recent user turn is embedded.
	texts := emb.Texts()
	if len(texts) != 1 || texts[0] != "Hur lång är leveranstiden?" {
		t.Errorf("embedded texts = %v, want the latest user question", texts)
	}
	if idx.SearchCalls() != 1 {
		t.Errorf("search calls = %d, want 1", idx.SearchCalls())
	}
	if idx.LastTopK() != DefaultTopK {
		t.Errorf("topK = %d, want %d", idx.LastTopK(), DefaultTopK)
	}
	if gen.Calls() != 2 {
		t.Errorf("generator calls = %d, want 2 (gate + answer)", gen.Calls())
	}

	// The answer prompt carries the formatted context.
	prompts := gen.Prompts()
	answerPrompt := prompts[len(prompts)-1]
	if !strings.Contains(answerPrompt, "[#1] (1. Leverans — Leverans)") {
		t.Errorf("answer prompt missing formatted context:\n%s", answerPrompt)
	}
}

// Citations cover every retrieved chunk even when the answer text
// references none of them.
func TestChain_CitationsNotPruned(t *testing.T) {
	rows := retrievedFixture()
	chain, _, _, _ := chainFixture(rows, "Jag hittar inte det i FAQ/policy.")

	res, err := chain.Ask(context.Background(), []Turn{
		{Role: RoleUser, Content: "Hur lång är leveranstiden?"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if len(res.Citations) != len(rows) {
		t.Errorf("len(Citations) = %d, want %d", len(res.Citations), len(rows))
	}
}

func TestChain_EmptyRetrieval(t *testing.T) {
	chain, _, _, idx := chainFixture(nil, "Jag hittar inte det i FAQ/policy, kontakta support@technova.se.")

	res, err := chain.Ask(context.Background(), []Turn{
		{Role: RoleUser, Content: "Hur lång är leveranstiden?"},
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if idx.SearchCalls() != 1 {
		t.Errorf("search calls = %d, want 1", idx.SearchCalls())
	}
	if len(res.Citations) != 0 {
		t.Errorf("len(Citations) = %d, want 0", len(res.Citations))
	}
	if res.Text == "" {
		t.Error("Text is empty, want fallback answer")
	}
}

func TestChain_CustomTopK(t *testing.T) {
	gen := testutil.NewMockGenerator("JA")
	gen.AddResponse("KONTEKST", "svar")
	emb := testutil.NewMockEmbedder([]float32{0.5})
	idx := testutil.NewMockIndex(nil)
	chain := NewChain(NewLLMGate(gen, nil), emb, idx, NewSynthesizer(gen, nil), 3, nil)

	if _, err := chain.Ask(context.Background(), []Turn{{Role: RoleUser, Content: "fråga"}}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if idx.LastTopK() != 3 {
		t.Errorf("topK = %d, want 3", idx.LastTopK())
	}
}

func TestChain_EmbedError(t *testing.T) {
	chain, _, emb, idx := chainFixture(nil, "svar")
	wantErr := errors.New("embedding service down")
	emb.Fail(wantErr)

	_, err := chain.Ask(context.Background(), []Turn{{Role: RoleUser, Content: "fråga"}})
	if !errors.Is(err, wantErr) {
		t.Errorf("Ask() error = %v, want %v", err, wantErr)
	}
	if idx.SearchCalls() != 0 {
		t.Errorf("search calls = %d, want 0 after embed failure", idx.SearchCalls())
	}
}

func TestChain_SearchError(t *testing.T) {
	chain, gen, _, idx := chainFixture(nil, "svar")
	wantErr := &knowledge.SearchError{Err: errors.New("connection refused")}
	idx.FailSearch(wantErr)

	_, err := chain.Ask(context.Background(), []Turn{{Role: RoleUser, Content: "fråga"}})

	var searchErr *knowledge.SearchError
	if !errors.As(err, &searchErr) {
		t.Fatalf("Ask() error = %v, want *knowledge.SearchError", err)
	}
	// Gate ran, answer synthesis did not.
	if gen.Calls() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.Calls())
	}
	if idx.SearchCalls() != 1 {
		t.Errorf("search calls = %d, want 1", idx.SearchCalls())
	}
}

func TestChain_GateError(t *testing.T) {
	chain, gen, emb, _ := chainFixture(nil, "svar")
	wantErr := errors.New("completion service down")
	gen.Fail(wantErr)

	_, err := chain.Ask(context.Background(), []Turn{{Role: RoleUser, Content: "fråga"}})
	if !errors.Is(err, wantErr) {
		t.Errorf("Ask() error = %v, want %v", err, wantErr)
	}
	if emb.Calls() != 0 {
		t.Errorf("embedder calls = %d, want 0 after gate failure", emb.Calls())
	}
}

// seqGen returns scripted responses in call order, so a later call can
// fail while earlier ones succeed.
type seqGen struct {
	responses []string
	errs      []error
	calls     int
}

func (g *seqGen) Generate(context.Context, string) (string, error) {
	i := g.calls
	g.calls++
	if i >= len(g.responses) {
		return "", errors.New("unexpected generator call")
	}
	return g.responses[i], g.errs[i]
}

func TestChain_AnswerError(t *testing.T) {
	wantErr := errors.New("completion timed out")
	gen := &seqGen{responses: []string{"JA", ""}, errs: []error{nil, wantErr}}
	emb := testutil.NewMockEmbedder([]float32{0.5})
	idx := testutil.NewMockIndex(retrievedFixture())
	chain := NewChain(NewLLMGate(gen, nil), emb, idx, NewSynthesizer(gen, nil), 0, nil)

	_, err := chain.Ask(context.Background(), []Turn{{Role: RoleUser, Content: "fråga"}})
	if !errors.Is(err, wantErr) {
		t.Errorf("Ask() error = %v, want %v", err, wantErr)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}
