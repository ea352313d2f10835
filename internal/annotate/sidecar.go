package annotate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
)

// SidecarExt is the extension of pre-computed annotation files
const SidecarExt = ".conllu"

// SidecarAnnotator reads a pre-computed CoNLL-U file stored next to each document
type SidecarAnnotator struct{}

// Name returns the backend name
func (SidecarAnnotator) Name() string { return "conllu" }

// SidecarPath returns the annotation file for a document: texts/a.txt -> texts/a.conllu
func SidecarPath(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + SidecarExt
}

// Annotate decodes the sidecar of src.Path against src.Text
func (SidecarAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	path := SidecarPath(src.Path)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no annotation file %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("open annotation: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := DecodeCoNLLU(f, src.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = src.Path
	return doc, nil
}
