package extract

import (
	"context"
	"sort"

	"github.com/ppiankov/reltext/internal/model"
)

// SubjectActions counts entities acting as the nominal subject of a verb.
// A subject resolves to every span containing its start offset; PERSON spans
// are normalized, ORGANIZATION spans keep their text, other types and
// unmatched subjects are ignored.
func (e *Extractor) SubjectActions(ctx context.Context, tokens []model.Token, spans []model.Span) (model.Counts[model.PersonAction], model.Counts[model.OrganizationAction]) {
	personAct := make(model.Counts[model.PersonAction])
	orgAct := make(model.Counts[model.OrganizationAction])

	subjects := subjectsByHead(tokens)
	if len(subjects) == 0 {
		return personAct, orgAct
	}
	index := newSpanIndex(spans)

	for _, verb := range tokens {
		if verb.POS != model.POSVerb {
			continue
		}
		deps := subjects[verb.ID]
		if len(deps) == 0 {
			continue
		}
		tense := ClassifyTense(verb.Feats)

		for _, subj := range deps {
			for _, span := range index.containing(subj.Start) {
				switch span.Type {
				case model.EntityPerson:
					personAct.Inc(model.PersonAction{
						Person: e.normalizer.ToNominative(ctx, span.Text),
						Verb:   verb.Text,
						Tense:  tense,
					})
				case model.EntityOrganization:
					orgAct.Inc(model.OrganizationAction{
						Organization: span.Text,
						Verb:         verb.Text,
						Tense:        tense,
					})
				}
			}
		}
	}

	return personAct, orgAct
}

// subjectsByHead groups nsubj tokens by the ID of their head
func subjectsByHead(tokens []model.Token) map[string][]model.Token {
	subjects := make(map[string][]model.Token)
	for _, t := range tokens {
		if t.Rel != model.RelNominalSubject || t.HeadID == "" {
			continue
		}
		subjects[t.HeadID] = append(subjects[t.HeadID], t)
	}
	return subjects
}

// spanIndex answers "which spans contain offset" without scanning every span.
// Spans are sorted by start; maxStop[i] is the largest Stop among spans[:i+1].
type spanIndex struct {
	spans   []model.Span
	maxStop []int
}

func newSpanIndex(spans []model.Span) *spanIndex {
	sorted := make([]model.Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	maxStop := make([]int, len(sorted))
	for i, s := range sorted {
		maxStop[i] = s.Stop
		if i > 0 && maxStop[i-1] > s.Stop {
			maxStop[i] = maxStop[i-1]
		}
	}
	return &spanIndex{spans: sorted, maxStop: maxStop}
}

// containing returns the spans whose [Start, Stop) holds offset, in start order
func (x *spanIndex) containing(offset int) []model.Span {
	// first span starting after offset
	hi := sort.Search(len(x.spans), func(i int) bool { return x.spans[i].Start > offset })

	var found []model.Span
	for i := hi - 1; i >= 0 && x.maxStop[i] > offset; i-- {
		if x.spans[i].Contains(offset) {
			found = append(found, x.spans[i])
		}
	}
	for l, r := 0, len(found)-1; l < r; l, r = l+1, r-1 {
		found[l], found[r] = found[r], found[l]
	}
	return found
}
