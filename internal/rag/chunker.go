package rag

import (
	"regexp"
	"strings"

	"github.com/technova/supportbot/internal/knowledge"
)

// Default chunking parameters. A 900-character window with 150 characters
// of overlap keeps every policy clause inside at least one window while
// staying well under the embedding model's input limit.
const (
	DefaultChunkSize    = 900
	DefaultChunkOverlap = 150
)

// Labels for text that appears before the first numbered header.
const (
	defaultSection = "Allmänt"
	defaultHeading = "Start"
)

// sectionRe matches numbered top-level headers: "<number>. <title>".
var sectionRe = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// SplitOptions configures SplitDocument.
type SplitOptions struct {
	// Size is the window size in characters. Zero means DefaultChunkSize.
	Size int

	// Overlap is the window overlap in characters. Negative means
	// DefaultChunkOverlap; it is clamped below Size.
	Overlap int

	// Source and Language are stamped on every produced chunk.
	Source   string
	Language string
}

// sectionBlock accumulates the lines belonging to one numbered section.
type sectionBlock struct {
	section string
	heading string
	lines   []string
}

// SplitDocument splits raw policy text into section-labeled, size-bounded,
// overlapping chunks in document order. Lines before the first numbered
// header fall into an implicit "Allmänt"/"Start" block. Malformed or empty
// input yields an empty slice; callers treat that as a fatal ingestion
// condition.
func SplitDocument(raw string, opts SplitOptions) []knowledge.Chunk {
	if opts.Size <= 0 {
		opts.Size = DefaultChunkSize
	}
	if opts.Overlap < 0 {
		opts.Overlap = DefaultChunkOverlap
	}
	if opts.Overlap >= opts.Size {
		opts.Overlap = opts.Size - 1
	}

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var blocks []*sectionBlock
	current := &sectionBlock{section: defaultSection, heading: defaultHeading}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			if len(current.lines) > 0 {
				blocks = append(blocks, current)
			}
			current = &sectionBlock{
				section: strings.TrimSpace(m[1] + ". " + m[2]),
				heading: strings.TrimSpace(m[2]),
			}
			continue
		}
		current.lines = append(current.lines, line)
	}
	if len(current.lines) > 0 {
		blocks = append(blocks, current)
	}

	var chunks []knowledge.Chunk
	for _, b := range blocks {
		text := strings.TrimSpace(strings.Join(b.lines, "\n"))
		if text == "" {
			continue
		}
		for _, window := range splitWindows(text, opts.Size, opts.Overlap) {
			chunks = append(chunks, knowledge.Chunk{
				Content:  window,
				Section:  b.section,
				Heading:  b.heading,
				Source:   opts.Source,
				Language: opts.Language,
			})
		}
	}
	return chunks
}

// splitWindows cuts text into fixed-size windows advancing by
// max(1, size-overlap) characters. Size and overlap count runes, not
// bytes, so boundaries never land inside a multibyte character (å/ä/ö
// are two bytes each). The final partial window is kept when it is
// non-empty after trimming.
func splitWindows(text string, size, overlap int) []string {
	step := size - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		if w := strings.TrimSpace(string(runes[i:end])); w != "" {
			out = append(out, w)
		}
	}
	return out
}
