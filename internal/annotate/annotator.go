// Package annotate turns document text into entity spans and dependency-parsed
// tokens by calling an external NLP annotator.
package annotate

import (
	"context"
	"errors"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
)

var (
	// ErrEmptyText is returned for documents with no text to annotate
	ErrEmptyText = errors.New("empty text")

	// ErrMalformed is returned when annotator output cannot be decoded
	ErrMalformed = errors.New("malformed annotation")

	// ErrUnavailable is returned when the annotator cannot be reached or fails to run
	ErrUnavailable = errors.New("annotator unavailable")
)

// Annotator produces the linguistic annotation of one document.
// Implementations are constructed once per run and must be safe for concurrent use.
type Annotator interface {
	// Name identifies the backend; it also namespaces cached annotations
	Name() string

	// Annotate returns spans and tokens with offsets into src.Text
	Annotate(ctx context.Context, src model.Source) (*model.Document, error)
}

func checkText(src model.Source) error {
	if strings.TrimSpace(src.Text) == "" {
		return ErrEmptyText
	}
	return nil
}
