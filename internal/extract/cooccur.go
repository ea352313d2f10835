package extract

import (
	"context"

	"github.com/ppiankov/reltext/internal/model"
)

// Cooccurrence counts every unordered pair of spans in the document.
// PERSON–LOCATION pairs are normalized on both sides; LOCATION–ORGANIZATION
// pairs normalize the location only. Distance between spans is ignored.
func (e *Extractor) Cooccurrence(ctx context.Context, spans []model.Span) (model.Counts[model.PersonLocation], model.Counts[model.LocationOrganization]) {
	personLoc := make(model.Counts[model.PersonLocation])
	locOrg := make(model.Counts[model.LocationOrganization])

	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]

			if per, loc, ok := pick(a, b, model.EntityPerson, model.EntityLocation); ok {
				personLoc.Inc(model.PersonLocation{
					Person:   e.normalizer.ToNominative(ctx, per.Text),
					Location: e.normalizer.ToNominative(ctx, loc.Text),
				})
				continue
			}
			if loc, org, ok := pick(a, b, model.EntityLocation, model.EntityOrganization); ok {
				locOrg.Inc(model.LocationOrganization{
					Location:     e.normalizer.ToNominative(ctx, loc.Text),
					Organization: org.Text,
				})
			}
		}
	}

	return personLoc, locOrg
}

// pick orders a pair of spans as (first, second) when their types are
// exactly {first, second} in either order
func pick(a, b model.Span, first, second model.EntityType) (model.Span, model.Span, bool) {
	switch {
	case a.Type == first && b.Type == second:
		return a, b, true
	case a.Type == second && b.Type == first:
		return b, a, true
	default:
		return model.Span{}, model.Span{}, false
	}
}
