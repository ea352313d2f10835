// Package extract derives relation counts from an annotated document.
package extract

import (
	"context"

	"github.com/ppiankov/reltext/internal/model"
)

// Normalizer renders a noun phrase in its nominative form.
// *morph.Normalizer satisfies it.
type Normalizer interface {
	ToNominative(ctx context.Context, text string) string
}

type identity struct{}

func (identity) ToNominative(_ context.Context, text string) string { return text }

// Extractor runs the co-occurrence and subject–action extractors over a document
type Extractor struct {
	normalizer Normalizer
}

// NewExtractor creates an extractor. A nil normalizer leaves entity text unchanged.
func NewExtractor(normalizer Normalizer) *Extractor {
	if normalizer == nil {
		normalizer = identity{}
	}
	return &Extractor{normalizer: normalizer}
}

// Extract returns the four relation counters of doc
func (e *Extractor) Extract(ctx context.Context, doc *model.Document) *model.Relations {
	rel := model.NewRelations()
	if doc == nil {
		return rel
	}
	rel.PersonLocation, rel.LocationOrganization = e.Cooccurrence(ctx, doc.Spans)
	rel.PersonAction, rel.OrganizationAction = e.SubjectActions(ctx, doc.Tokens, doc.Spans)
	return rel
}
