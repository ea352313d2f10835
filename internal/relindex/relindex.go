// Package relindex reads a rendered text report back into an index of
// relationships that can be queried per entity.
package relindex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/reltext/internal/model"
)

// ErrMalformedReport is returned when a report line cannot be parsed
var ErrMalformedReport = errors.New("malformed report")

// Category is the role a word plays in a relationship
type Category int

const (
	None Category = iota
	Person
	Location
	Organization
	Action
)

func (c Category) String() string {
	switch c {
	case Person:
		return "PER"
	case Location:
		return "LOC"
	case Organization:
		return "ORG"
	case Action:
		return "ACTION"
	default:
		return "NONE"
	}
}

// ParseCategory maps "PER", "person" or a report column name to a category
func ParseCategory(s string) Category {
	return categoryNames[strings.ToLower(strings.TrimSpace(s))]
}

var categoryNames = map[string]Category{
	"per": Person, "person": Person, "персонаж": Person,
	"loc": Location, "location": Location, "локация": Location,
	"org": Organization, "organization": Organization, "организация": Organization,
	"action": Action, "действие": Action,
}

var tenseNames = map[string]model.Tense{
	"прошедшее": model.TensePast, "past": model.TensePast,
	"настоящее": model.TensePresent, "present": model.TensePresent,
	"будущее": model.TenseFuture, "future": model.TenseFuture,
}

// Word is an interned report entry. Words are compared by identity.
type Word struct {
	Text     string
	Category Category
}

// Dictionary interns words by text and category
type Dictionary struct {
	words map[Word]*Word
}

// NewDictionary creates an empty dictionary
func NewDictionary() *Dictionary {
	return &Dictionary{words: make(map[Word]*Word)}
}

// Intern returns the single shared *Word for text in category
func (d *Dictionary) Intern(text string, c Category) *Word {
	key := Word{Text: text, Category: c}
	if w, ok := d.words[key]; ok {
		return w
	}
	w := &key
	d.words[key] = w
	return w
}

// Lookup returns the interned word, or nil
func (d *Dictionary) Lookup(text string, c Category) *Word {
	return d.words[Word{Text: text, Category: c}]
}

// Len returns the number of distinct words
func (d *Dictionary) Len() int { return len(d.words) }

// Relationship is one report row
type Relationship struct {
	Left      *Word
	Right     *Word
	Tense     model.Tense // set for action rows that carried a tense
	Frequency int
}

// Partner is the other side of a relationship as seen from one word
type Partner struct {
	Word      *Word
	Tense     model.Tense
	Frequency int
}

// Index holds the relationships of a report keyed by either side
type Index struct {
	dict      *Dictionary
	relations []Relationship
	partners  map[*Word][]Partner
}

// NewIndex creates an empty index over dict
func NewIndex(dict *Dictionary) *Index {
	if dict == nil {
		dict = NewDictionary()
	}
	return &Index{dict: dict, partners: make(map[*Word][]Partner)}
}

// Add records a relationship on both of its words
func (ix *Index) Add(r Relationship) {
	ix.relations = append(ix.relations, r)
	ix.partners[r.Left] = append(ix.partners[r.Left], Partner{Word: r.Right, Tense: r.Tense, Frequency: r.Frequency})
	ix.partners[r.Right] = append(ix.partners[r.Right], Partner{Word: r.Left, Tense: r.Tense, Frequency: r.Frequency})
}

// Dictionary returns the word dictionary of the index
func (ix *Index) Dictionary() *Dictionary { return ix.dict }

// Relationships returns every row in report order
func (ix *Index) Relationships() []Relationship {
	out := make([]Relationship, len(ix.relations))
	copy(out, ix.relations)
	return out
}

// Partners returns the partners of text in category c, most frequent first.
// A None category matches the word in any category.
func (ix *Index) Partners(text string, c Category) []Partner {
	var out []Partner
	for w, ps := range ix.partners {
		if w.Text != text || (c != None && w.Category != c) {
			continue
		}
		out = append(out, ps...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.Word.Category != b.Word.Category {
			return a.Word.Category < b.Word.Category
		}
		if a.Word.Text != b.Word.Text {
			return a.Word.Text < b.Word.Text
		}
		return a.Tense < b.Tense
	})
	return out
}

// Words returns the texts of category c in lexicographic order
func (ix *Index) Words(c Category) []string {
	var out []string
	for w := range ix.dict.words {
		if w.Category == c {
			out = append(out, w.Text)
		}
	}
	sort.Strings(out)
	return out
}

var sectionHeader = regexp.MustCompile(`<([^<>]+)>:<([^<>]+)>`)

// ReadReport parses a text report in either label language
func ReadReport(r io.Reader) (*Index, error) {
	ix := NewIndex(nil)

	var left, right Category
	inSection := false
	skipColumns := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := sectionHeader.FindStringSubmatch(line); m != nil && !strings.Contains(line, "\t") {
			left, right = ParseCategory(m[1]), ParseCategory(m[2])
			if left == None || right == None {
				return nil, fmt.Errorf("%w: line %d: unknown section %q", ErrMalformedReport, lineNo, line)
			}
			inSection = true
			skipColumns = true
			continue
		}
		if !inSection {
			// title line
			continue
		}
		if skipColumns {
			skipColumns = false
			continue
		}

		rel, err := parseRow(ix.dict, line, left, right)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedReport, lineNo, err)
		}
		ix.Add(rel)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return ix, nil
}

func parseRow(dict *Dictionary, line string, left, right Category) (Relationship, error) {
	tab := strings.LastIndex(line, "\t")
	if tab < 0 {
		return Relationship{}, fmt.Errorf("missing frequency in %q", line)
	}
	freq, err := strconv.Atoi(strings.TrimSpace(line[tab+1:]))
	if err != nil || freq <= 0 {
		return Relationship{}, fmt.Errorf("bad frequency in %q", line)
	}

	first, second, ok := strings.Cut(line[:tab], " : ")
	if !ok || first == "" || second == "" {
		return Relationship{}, fmt.Errorf("missing pair separator in %q", line)
	}

	var tense model.Tense
	if right == Action {
		second, tense = splitTense(second)
	}

	return Relationship{
		Left:      dict.Intern(first, left),
		Right:     dict.Intern(second, right),
		Tense:     tense,
		Frequency: freq,
	}, nil
}

// splitTense turns "поехал (прошедшее)" into ("поехал", past)
func splitTense(action string) (string, model.Tense) {
	if !strings.HasSuffix(action, ")") {
		return action, model.TenseNone
	}
	open := strings.LastIndex(action, " (")
	if open < 0 {
		return action, model.TenseNone
	}
	tense, ok := tenseNames[action[open+2:len(action)-1]]
	if !ok {
		return action, model.TenseNone
	}
	return action[:open], tense
}
