// Package aggregate merges per-document relation counts into corpus totals
// and ranks them for reporting.
package aggregate

import (
	"sort"
	"sync"

	"github.com/ppiankov/reltext/internal/model"
)

// Aggregator accumulates relation counts across documents. Safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	relations *model.Relations
	documents int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{relations: model.NewRelations()}
}

// Add merges the counts of one document
func (a *Aggregator) Add(rel *model.Relations) {
	if rel == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relations.Merge(rel)
	a.documents++
}

// Documents returns the number of documents merged so far
func (a *Aggregator) Documents() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.documents
}

// Relations returns a copy of the corpus totals
func (a *Aggregator) Relations() *model.Relations {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := model.NewRelations()
	out.Merge(a.relations)
	return out
}

// Rank orders counts by descending frequency, breaking ties with less
func Rank[K comparable](counts model.Counts[K], less func(a, b K) bool) []model.Ranked[K] {
	ranked := make([]model.Ranked[K], 0, len(counts))
	for k, n := range counts {
		ranked = append(ranked, model.Ranked[K]{Key: k, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return less(ranked[i].Key, ranked[j].Key)
	})
	return ranked
}

// Key orderings used to make ranked tables reproducible

func LessPersonLocation(a, b model.PersonLocation) bool {
	return lessFields([]string{a.Person, a.Location}, []string{b.Person, b.Location})
}

func LessPersonAction(a, b model.PersonAction) bool {
	return lessFields([]string{a.Person, a.Verb, string(a.Tense)}, []string{b.Person, b.Verb, string(b.Tense)})
}

func LessLocationOrganization(a, b model.LocationOrganization) bool {
	return lessFields([]string{a.Location, a.Organization}, []string{b.Location, b.Organization})
}

func LessOrganizationAction(a, b model.OrganizationAction) bool {
	return lessFields([]string{a.Organization, a.Verb, string(a.Tense)}, []string{b.Organization, b.Verb, string(b.Tense)})
}

func lessFields(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Fill ranks every counter of rel into report
func Fill(report *model.Report, rel *model.Relations) {
	report.PersonLocation = Rank(rel.PersonLocation, LessPersonLocation)
	report.PersonAction = Rank(rel.PersonAction, LessPersonAction)
	report.LocationOrganization = Rank(rel.LocationOrganization, LessLocationOrganization)
	report.OrganizationAction = Rank(rel.OrganizationAction, LessOrganizationAction)
}
