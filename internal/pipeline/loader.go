package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/reltext/internal/model"
)

// DefaultMaxBytes caps the size of a single corpus file
const DefaultMaxBytes = 64 << 20

var (
	startBanner = regexp.MustCompile(`\*\*\* START OF.*\*\*\*`)
	endBanner   = regexp.MustCompile(`\*\*\* END OF.*\*\*\*`)
)

// Loader discovers and reads corpus files
type Loader struct {
	dir      string
	patterns []string
	maxBytes int64
}

// NewLoader creates a loader for the files in dir whose names match one of patterns
func NewLoader(dir string, patterns []string, maxBytes int64) *Loader {
	if len(patterns) == 0 {
		patterns = []string{"*.txt"}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{
		dir:      dir,
		patterns: patterns,
		maxBytes: maxBytes,
	}
}

// Discover lists matching files in the corpus directory, sorted by name.
// Subdirectories are not descended into.
func (l *Loader) Discover() ([]string, error) {
	for _, p := range l.patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", p, err)
		}
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, p := range l.patterns {
			if ok, _ := filepath.Match(p, e.Name()); ok {
				paths = append(paths, filepath.Join(l.dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Load reads one corpus file and returns its cleaned text
func (l *Loader) Load(path string) (model.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Source{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return model.Source{}, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return model.Source{}, fmt.Errorf("file exceeds %d bytes", l.maxBytes)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return model.Source{}, fmt.Errorf("file is not valid UTF-8")
	}

	text := string(data)
	if isHTML(path) {
		text, err = HTMLToText(strings.NewReader(text))
		if err != nil {
			return model.Source{}, fmt.Errorf("parse html: %w", err)
		}
	}

	return model.Source{Path: path, Text: Clean(norm.NFC.String(text))}, nil
}

// Clean removes Project Gutenberg start and end banners
func Clean(text string) string {
	text = startBanner.ReplaceAllString(text, "")
	return endBanner.ReplaceAllString(text, "")
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// HTMLToText extracts visible text, one line per block element
func HTMLToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if buf.Len() > 0 && !endsWithSpace(buf.String()) {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] && buf.Len() > 0 && !endsWithSpace(buf.String()) {
			buf.WriteString("\n")
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String()), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ") || strings.HasSuffix(s, "\n")
}
