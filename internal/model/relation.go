package model

// Tense is the coarse grammatical time of a verb. The zero value means undetermined.
type Tense string

const (
	TenseNone    Tense = ""
	TensePast    Tense = "past"
	TensePresent Tense = "present"
	TenseFuture  Tense = "future"
)

// PersonLocation is a person and a location seen in the same document
type PersonLocation struct {
	Person   string `json:"person"`
	Location string `json:"location"`
}

// LocationOrganization is a location and an organization seen in the same document.
// Organization keeps the surface text.
type LocationOrganization struct {
	Location     string `json:"location"`
	Organization string `json:"organization"`
}

// PersonAction is a person acting as the subject of a verb
type PersonAction struct {
	Person string `json:"person"`
	Verb   string `json:"verb"`
	Tense  Tense  `json:"tense,omitempty"`
}

// OrganizationAction is an organization acting as the subject of a verb
type OrganizationAction struct {
	Organization string `json:"organization"`
	Verb         string `json:"verb"`
	Tense        Tense  `json:"tense,omitempty"`
}

// Counts maps a relation key to the number of times it was observed
type Counts[K comparable] map[K]int

// Inc records one more observation of key
func (c Counts[K]) Inc(key K) {
	c[key]++
}

// Merge adds every count of other into c
func (c Counts[K]) Merge(other Counts[K]) {
	for k, n := range other {
		if n > 0 {
			c[k] += n
		}
	}
}

// Total returns the sum of all counts
func (c Counts[K]) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Relations holds the four relation counters of a document or a corpus
type Relations struct {
	PersonLocation       Counts[PersonLocation]
	PersonAction         Counts[PersonAction]
	LocationOrganization Counts[LocationOrganization]
	OrganizationAction   Counts[OrganizationAction]
}

// NewRelations returns a Relations with empty counters
func NewRelations() *Relations {
	return &Relations{
		PersonLocation:       make(Counts[PersonLocation]),
		PersonAction:         make(Counts[PersonAction]),
		LocationOrganization: make(Counts[LocationOrganization]),
		OrganizationAction:   make(Counts[OrganizationAction]),
	}
}

// Merge adds every counter of other into r
func (r *Relations) Merge(other *Relations) {
	if other == nil {
		return
	}
	r.PersonLocation.Merge(other.PersonLocation)
	r.PersonAction.Merge(other.PersonAction)
	r.LocationOrganization.Merge(other.LocationOrganization)
	r.OrganizationAction.Merge(other.OrganizationAction)
}

// Len returns the number of distinct keys across all counters
func (r *Relations) Len() int {
	return len(r.PersonLocation) + len(r.PersonAction) +
		len(r.LocationOrganization) + len(r.OrganizationAction)
}
