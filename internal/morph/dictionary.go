package morph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dictionary is an analyzer backed by a full-form lexicon.
//
// Each lexicon line is
//
//	form<TAB>lemma<TAB>grammemes[<TAB>score]
//
// with comma-separated OpenCorpora grammemes, part of speech first, e.g.
//
//	ивана	иван	NOUN,anim,masc,Name,sing,gent	0.9
//
// Empty lines and lines starting with '#' are ignored. A Dictionary is
// read-only after loading and safe for concurrent use.
type Dictionary struct {
	byForm     map[string][]*lexeme
	byParadigm map[string][]*lexeme
	size       int
}

type lexeme struct {
	form   string
	lemma  string
	pos    string
	grams  []string
	kase   string
	number string
	score  float64
	order  int
}

func (l *lexeme) paradigmKey() string {
	return l.lemma + "\t" + l.pos
}

// LoadDictionaryFile loads a lexicon from disk
func LoadDictionaryFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer func() { _ = f.Close() }()

	d, err := LoadDictionary(f)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	return d, nil
}

// LoadDictionary parses a lexicon from r
func LoadDictionary(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{
		byForm:     make(map[string][]*lexeme),
		byParadigm: make(map[string][]*lexeme),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 tab-separated fields, got %d", lineNo, len(fields))
		}

		grams := splitGrammemes(fields[2])
		if len(grams) == 0 {
			return nil, fmt.Errorf("line %d: empty grammemes", lineNo)
		}

		lx := &lexeme{
			form:  lowerWord(fields[0]),
			lemma: foldWord(fields[1]),
			pos:   grams[0],
			grams: grams,
			score: 1,
			order: d.size,
		}
		if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
			score, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad score %q: %w", lineNo, fields[3], err)
			}
			lx.score = score
		}
		for _, g := range grams {
			switch {
			case caseGrammemes[g]:
				lx.kase = g
			case g == "sing" || g == "plur":
				lx.number = g
			}
		}

		key := foldWord(lx.form)
		d.byForm[key] = append(d.byForm[key], lx)
		d.byParadigm[lx.paradigmKey()] = append(d.byParadigm[lx.paradigmKey()], lx)
		d.size++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	for form, readings := range d.byForm {
		sort.SliceStable(readings, func(i, j int) bool {
			if readings[i].score != readings[j].score {
				return readings[i].score > readings[j].score
			}
			return readings[i].order < readings[j].order
		})
		d.byForm[form] = readings
	}

	return d, nil
}

// Name returns the analyzer name
func (d *Dictionary) Name() string { return "dictionary" }

// Len returns the number of lexicon entries
func (d *Dictionary) Len() int { return d.size }

// Parse returns the readings of word ranked by score, then lexicon order
func (d *Dictionary) Parse(ctx context.Context, word string) ([]Parse, error) {
	readings := d.byForm[foldWord(word)]
	if len(readings) == 0 {
		return nil, nil
	}
	parses := make([]Parse, len(readings))
	for i, lx := range readings {
		parses[i] = &dictParse{dict: d, lx: lx, word: word}
	}
	return parses, nil
}

type dictParse struct {
	dict *Dictionary
	lx   *lexeme
	word string
}

func (p *dictParse) Word() string { return p.word }

func (p *dictParse) Tag() string { return strings.Join(p.lx.grams, ",") }

// Inflect picks the paradigm member in case c that shares the most
// non-case grammemes with this reading. Number must match when known.
func (p *dictParse) Inflect(c Case) (string, bool) {
	var best *lexeme
	bestShared := -1
	for _, cand := range p.dict.byParadigm[p.lx.paradigmKey()] {
		if cand.kase != string(c) {
			continue
		}
		if p.lx.number != "" && cand.number != "" && cand.number != p.lx.number {
			continue
		}
		shared := sharedGrammemes(p.lx.grams, cand.grams)
		if shared > bestShared || (shared == bestShared && cand.order < best.order) {
			best = cand
			bestShared = shared
		}
	}
	if best == nil {
		return "", false
	}
	return best.form, true
}

func sharedGrammemes(a, b []string) int {
	n := 0
	for _, g := range a {
		if caseGrammemes[g] {
			continue
		}
		for _, h := range b {
			if g == h {
				n++
				break
			}
		}
	}
	return n
}

func splitGrammemes(s string) []string {
	var grams []string
	for _, g := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		grams = append(grams, strings.TrimSpace(g))
	}
	return grams
}

func lowerWord(w string) string {
	return cases.Lower(language.Russian).String(strings.TrimSpace(w))
}

// foldWord lower-cases a word and folds ё to е for lexicon lookups
func foldWord(w string) string {
	return strings.ReplaceAll(lowerWord(w), "ё", "е")
}
