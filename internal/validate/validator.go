// Package validate checks decoded annotations before extraction.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
)

// ErrInvalidDocument is returned when an annotation cannot be used for extraction
var ErrInvalidDocument = errors.New("invalid document")

// Issue is a problem that does not prevent extraction
type Issue struct {
	Ref     string // token ID or span position
	Message string
}

func (i Issue) String() string {
	return i.Ref + ": " + i.Message
}

// Validator checks documents at the annotation boundary
type Validator struct {
	maxIssues int
}

// NewValidator creates a validator that reports at most maxIssues issues per document
func NewValidator(maxIssues int) *Validator {
	if maxIssues <= 0 {
		maxIssues = 50
	}
	return &Validator{maxIssues: maxIssues}
}

// Validate checks doc against the source text length in runes (0 skips the bound check).
//
// Broken offsets, missing or duplicate token IDs fail with ErrInvalidDocument.
// Dangling heads, offsets past the end of the text and empty span text are
// returned as issues.
func (v *Validator) Validate(doc *model.Document, textLen int) ([]Issue, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: no annotation", ErrInvalidDocument)
	}

	var issues []Issue
	report := func(ref, format string, args ...any) {
		if len(issues) < v.maxIssues {
			issues = append(issues, Issue{Ref: ref, Message: fmt.Sprintf(format, args...)})
		}
	}

	ids := make(map[string]bool, len(doc.Tokens))
	for i, t := range doc.Tokens {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: token %d has no id", ErrInvalidDocument, i)
		}
		if ids[t.ID] {
			return nil, fmt.Errorf("%w: duplicate token id %s", ErrInvalidDocument, t.ID)
		}
		ids[t.ID] = true
		if err := checkRange(t.Start, t.Stop); err != nil {
			return nil, fmt.Errorf("%w: token %s: %v", ErrInvalidDocument, t.ID, err)
		}
		if textLen > 0 && t.Stop > textLen {
			report(t.ID, "ends at %d past the text end %d", t.Stop, textLen)
		}
	}

	for _, t := range doc.Tokens {
		switch {
		case isRoot(t.HeadID):
		case t.HeadID == t.ID:
			report(t.ID, "is its own head")
		case !ids[t.HeadID]:
			report(t.ID, "head %s does not exist", t.HeadID)
		}
	}

	for i, s := range doc.Spans {
		ref := fmt.Sprintf("span %d", i)
		if err := checkRange(s.Start, s.Stop); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, ref, err)
		}
		if strings.TrimSpace(s.Text) == "" {
			report(ref, "has no text")
		}
		if textLen > 0 && s.Stop > textLen {
			report(ref, "ends at %d past the text end %d", s.Stop, textLen)
		}
	}

	return issues, nil
}

func checkRange(start, stop int) error {
	if start < 0 {
		return fmt.Errorf("negative start %d", start)
	}
	if stop < start {
		return fmt.Errorf("stop %d before start %d", stop, start)
	}
	return nil
}

// isRoot reports whether headID marks a sentence root: empty, "0" or "<sentence>_0"
func isRoot(headID string) bool {
	return headID == "" || headID == "0" || strings.HasSuffix(headID, "_0")
}
