package model

import "time"

// Report is the corpus-level analysis result handed to the renderers
type Report struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	InputDir    string           `json:"input_dir"`
	Annotator   string           `json:"annotator"`
	Documents   []DocumentStatus `json:"documents"`

	PersonLocation       []Ranked[PersonLocation]       `json:"person_location"`
	PersonAction         []Ranked[PersonAction]         `json:"person_action"`
	LocationOrganization []Ranked[LocationOrganization] `json:"location_organization"`
	OrganizationAction   []Ranked[OrganizationAction]   `json:"organization_action"`
}

// Ranked is one row of a frequency table
type Ranked[K comparable] struct {
	Key   K   `json:"key"`
	Count int `json:"count"`
}

// DocumentStatus records how a single corpus file was processed
type DocumentStatus struct {
	Path      string        `json:"path"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Spans     int           `json:"spans"`
	Tokens    int           `json:"tokens"`
	Relations int           `json:"relations"` // distinct relation keys in this document
	Duration  time.Duration `json:"duration_ns"`
}

// Failed returns the statuses of documents that were skipped
func (r *Report) Failed() []DocumentStatus {
	var failed []DocumentStatus
	for _, d := range r.Documents {
		if !d.OK {
			failed = append(failed, d)
		}
	}
	return failed
}

// DocumentResult is the outcome of processing one corpus file:
// either Relations with a successful Status, or Err with the failure reason.
type DocumentResult struct {
	Status    DocumentStatus
	Relations *Relations
	Err       error
}
