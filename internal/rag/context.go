package rag

import (
	"fmt"
	"strings"

	"github.com/technova/supportbot/internal/knowledge"
)

// Placeholder labels for chunks missing section metadata, so the rendered
// context never has dangling punctuation.
const (
	placeholderSection = "Okänd sektion"
	placeholderHeading = "Ingen rubrik"
)

// FormatContext renders retrieved chunks as numbered blocks:
//
//	[#1] (<section> — <heading>)
//	<content>
//
// joined by a blank line, in input order. The input must already be
// similarity-ranked; positions start at 1 and match the Citation numbering
// built from the same list, which is what the synthesizer's footnote
// markers refer to. Pure function of its input.
func FormatContext(docs []knowledge.Retrieved) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		section := d.Section
		if section == "" {
			section = placeholderSection
		}
		heading := d.Heading
		if heading == "" {
			heading = placeholderHeading
		}
		blocks[i] = fmt.Sprintf("[#%d] (%s — %s)\n%s", i+1, section, heading, d.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildCitations derives the citation list positionally from the same
// retrieved chunks the context was built from: IDs run 1..K in input
// order. Citations are not pruned to those the answer actually references.
func BuildCitations(docs []knowledge.Retrieved) []Citation {
	citations := make([]Citation, len(docs))
	for i, d := range docs {
		citations[i] = Citation{
			ID:      i + 1,
			Section: d.Section,
			Heading: d.Heading,
			Source:  d.Source,
		}
	}
	return citations
}
