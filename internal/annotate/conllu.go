package annotate

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/reltext/internal/model"
)

// CoNLL-U column layout
const (
	colID = iota
	colForm
	colLemma
	colUPOS
	colXPOS
	colFeats
	colHead
	colDeprel
	colDeps
	colMisc
	numColumns
)

const (
	miscNER        = "NER"
	miscTokenRange = "TokenRange"
	miscSpaceAfter = "SpaceAfter"
)

type conlluRow struct {
	sentence int
	id       string
	form     string
	upos     string
	feats    map[string]string
	head     string
	deprel   string
	misc     map[string]string
}

// DecodeCoNLLU reads a CoNLL-U annotation of text.
//
// Token IDs become "<sentence>_<id>" with sentences numbered from 1; a head of
// 0 leaves HeadID empty. Multiword ranges and empty nodes are skipped. Named
// entities come from the MISC column (NER=B-PER, I-PER, O). Character offsets
// come from MISC TokenRange=start:end when present, else the form is located
// in text, else offsets are synthesized from SpaceAfter. When text is empty it
// is rebuilt from the "# text =" comments.
func DecodeCoNLLU(r io.Reader, text string) (*model.Document, error) {
	rows, sentTexts, err := readCoNLLU(r)
	if err != nil {
		return nil, err
	}
	if text == "" && len(sentTexts) > 0 {
		text = strings.Join(sentTexts, " ")
	}

	loc := newLocator(text)
	doc := &model.Document{
		Spans:  []model.Span{},
		Tokens: make([]model.Token, 0, len(rows)),
	}

	var open *model.Span
	closeSpan := func() {
		if open != nil {
			if s, ok := loc.slice(open.Start, open.Stop); ok {
				open.Text = s
			}
			doc.Spans = append(doc.Spans, *open)
			open = nil
		}
	}

	prevSentence := 0
	sep := ""
	for _, row := range rows {
		if row.sentence != prevSentence {
			closeSpan()
			prevSentence = row.sentence
		}

		start, stop, err := loc.place(row)
		if err != nil {
			return nil, err
		}

		tok := model.Token{
			ID:    fmt.Sprintf("%d_%s", row.sentence, row.id),
			Rel:   row.deprel,
			POS:   model.ParsePartOfSpeech(row.upos),
			Start: start,
			Stop:  stop,
			Text:  row.form,
			Feats: row.feats,
		}
		if row.head != "" && row.head != "0" {
			tok.HeadID = fmt.Sprintf("%d_%s", row.sentence, row.head)
		}
		doc.Tokens = append(doc.Tokens, tok)

		prefix, label := splitBIO(row.misc[miscNER])
		switch {
		case label == "":
			closeSpan()
		case open != nil && (prefix == "I" || prefix == "E") && open.Type == model.ParseEntityType(label):
			open.Stop = stop
			open.Text += sep + row.form
		default:
			closeSpan()
			open = &model.Span{Type: model.ParseEntityType(label), Start: start, Stop: stop, Text: row.form}
		}
		if prefix == "E" || prefix == "S" {
			closeSpan()
		}

		sep = " "
		if row.misc[miscSpaceAfter] == "No" {
			sep = ""
		}
	}
	closeSpan()

	return doc, nil
}

func readCoNLLU(r io.Reader) ([]conlluRow, []string, error) {
	var (
		rows      []conlluRow
		sentTexts []string
		sentence  = 1
		inSent    bool
		lineNo    int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if inSent {
				sentence++
				inSent = false
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if t, ok := strings.CutPrefix(line, "# text ="); ok {
				sentTexts = append(sentTexts, strings.TrimSpace(t))
			}
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != numColumns {
			return nil, nil, fmt.Errorf("%w: line %d: expected %d columns, got %d", ErrMalformed, lineNo, numColumns, len(fields))
		}

		id := fields[colID]
		if strings.ContainsAny(id, "-.") {
			continue
		}
		if _, err := strconv.Atoi(id); err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: bad token id %q", ErrMalformed, lineNo, id)
		}
		head := field(fields[colHead])
		if head != "" {
			if _, err := strconv.Atoi(head); err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: bad head %q", ErrMalformed, lineNo, head)
			}
		}

		rows = append(rows, conlluRow{
			sentence: sentence,
			id:       id,
			form:     fields[colForm],
			upos:     field(fields[colUPOS]),
			feats:    parseFeatures(fields[colFeats]),
			head:     head,
			deprel:   field(fields[colDeprel]),
			misc:     parseFeatures(fields[colMisc]),
		})
		inSent = true
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read conllu: %w", err)
	}

	return rows, sentTexts, nil
}

// field maps the CoNLL-U placeholder "_" to the empty string
func field(value string) string {
	if value == "_" {
		return ""
	}
	return value
}

// parseFeatures parses "Key=Value|Key=Value". Malformed pairs are skipped.
func parseFeatures(value string) map[string]string {
	if field(value) == "" {
		return nil
	}
	feats := make(map[string]string)
	for _, kv := range strings.Split(value, "|") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		feats[k] = v
	}
	if len(feats) == 0 {
		return nil
	}
	return feats
}

// splitBIO splits "B-PER" into ("B", "PER"). "O" and empty tags give no label.
func splitBIO(tag string) (string, string) {
	if tag == "" || tag == "O" {
		return "", ""
	}
	prefix, label, ok := strings.Cut(tag, "-")
	if !ok {
		return "B", tag
	}
	return strings.ToUpper(prefix), label
}

// locator assigns rune offsets to tokens, walking the source text left to right
type locator struct {
	text    string
	runes   []rune
	byteOff int
	runeOff int
}

func newLocator(text string) *locator {
	return &locator{text: text, runes: []rune(text)}
}

func (l *locator) place(row conlluRow) (int, int, error) {
	if tr, ok := row.misc[miscTokenRange]; ok {
		a, b, found := strings.Cut(tr, ":")
		start, err1 := strconv.Atoi(a)
		stop, err2 := strconv.Atoi(b)
		if !found || err1 != nil || err2 != nil || start < 0 || stop < start {
			return 0, 0, fmt.Errorf("%w: token %d_%s: bad TokenRange %q", ErrMalformed, row.sentence, row.id, tr)
		}
		l.seek(stop)
		return start, stop, nil
	}

	width := utf8.RuneCountInString(row.form)
	if l.text != "" {
		if idx := strings.Index(l.text[l.byteOff:], row.form); idx >= 0 {
			start := l.runeOff + utf8.RuneCountInString(l.text[l.byteOff:l.byteOff+idx])
			l.byteOff += idx + len(row.form)
			l.runeOff = start + width
			return start, start + width, nil
		}
	}

	start := l.runeOff
	next := start + width
	if row.misc[miscSpaceAfter] != "No" {
		next++
	}
	l.seek(next)
	return start, start + width, nil
}

// seek moves the cursor forward to rune offset off
func (l *locator) seek(off int) {
	for l.runeOff < off {
		if l.byteOff < len(l.text) {
			_, size := utf8.DecodeRuneInString(l.text[l.byteOff:])
			l.byteOff += size
		}
		l.runeOff++
	}
}

func (l *locator) slice(start, stop int) (string, bool) {
	if start < 0 || stop > len(l.runes) || start > stop || l.text == "" {
		return "", false
	}
	return string(l.runes[start:stop]), true
}
