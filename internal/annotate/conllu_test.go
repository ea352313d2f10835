package annotate

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/reltext/internal/model"
)

const sampleText = "Иван поехал в Москву. Петр Первый основал Санкт-Петербург."

const sampleCoNLLU = `# sent_id = 1
# text = Иван поехал в Москву.
1	Иван	Иван	PROPN	_	Animacy=Anim|Case=Nom|Gender=Masc|Number=Sing	2	nsubj	_	NER=B-PER
2	поехал	поехать	VERB	_	Aspect=Perf|Mood=Ind|Tense=Past|VerbForm=Fin	0	root	_	_
3	в	в	ADP	_	_	4	case	_	_
4	Москву	Москва	PROPN	_	Case=Acc|Gender=Fem|Number=Sing	2	obl	_	NER=B-LOC|SpaceAfter=No
5	.	.	PUNCT	_	_	2	punct	_	_

# sent_id = 2
# text = Петр Первый основал Санкт-Петербург.
1	Петр	Петр	PROPN	_	Case=Nom	3	nsubj	_	NER=B-PER
2	Первый	первый	ADJ	_	Case=Nom	1	flat:name	_	NER=I-PER
3	основал	основать	VERB	_	Aspect=Perf|Tense=Past	0	root	_	_
3.1	_	_	_	_	_	_	_	_	_
4	Санкт-Петербург	Санкт-Петербург	PROPN	_	Case=Acc	3	obj	_	NER=B-LOC|SpaceAfter=No
5	.	.	PUNCT	_	_	3	punct	_	_
`

func checkSample(t *testing.T, doc *model.Document) {
	t.Helper()

	if len(doc.Tokens) != 10 {
		t.Fatalf("expected 10 tokens, got %d", len(doc.Tokens))
	}

	tok := doc.Tokens[0]
	if tok.ID != "1_1" || tok.HeadID != "1_2" || tok.Rel != "nsubj" || tok.POS != model.POSPropn {
		t.Errorf("unexpected first token: %+v", tok)
	}
	verb := doc.Tokens[1]
	if verb.HeadID != "" || verb.POS != model.POSVerb || verb.Feats["Tense"] != "Past" {
		t.Errorf("unexpected verb token: %+v", verb)
	}
	if doc.Tokens[7].Text != "основал" || doc.Tokens[7].ID != "2_3" {
		t.Errorf("expected empty node to be skipped, got %+v", doc.Tokens[7])
	}

	offsets := map[string][2]int{
		"Иван": {0, 4}, "поехал": {5, 11}, "Москву": {14, 20},
		"Петр": {22, 26}, "основал": {34, 41}, "Санкт-Петербург": {42, 57},
	}
	for _, tok := range doc.Tokens {
		if want, ok := offsets[tok.Text]; ok && (tok.Start != want[0] || tok.Stop != want[1]) {
			t.Errorf("token %s: expected offsets %v, got [%d %d]", tok.Text, want, tok.Start, tok.Stop)
		}
	}

	want := []model.Span{
		{Type: model.EntityPerson, Start: 0, Stop: 4, Text: "Иван"},
		{Type: model.EntityLocation, Start: 14, Stop: 20, Text: "Москву"},
		{Type: model.EntityPerson, Start: 22, Stop: 33, Text: "Петр Первый"},
		{Type: model.EntityLocation, Start: 42, Stop: 57, Text: "Санкт-Петербург"},
	}
	if len(doc.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %d: %+v", len(want), len(doc.Spans), doc.Spans)
	}
	for i, s := range want {
		if doc.Spans[i] != s {
			t.Errorf("span %d: expected %+v, got %+v", i, s, doc.Spans[i])
		}
	}
}

func TestDecodeCoNLLU_WithText(t *testing.T) {
	doc, err := DecodeCoNLLU(strings.NewReader(sampleCoNLLU), sampleText)
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	checkSample(t, doc)
}

func TestDecodeCoNLLU_TextFromComments(t *testing.T) {
	doc, err := DecodeCoNLLU(strings.NewReader(sampleCoNLLU), "")
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	checkSample(t, doc)
}

func TestDecodeCoNLLU_SynthesizedOffsets(t *testing.T) {
	var lines []string
	for _, line := range strings.Split(sampleCoNLLU, "\n") {
		if !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}

	doc, err := DecodeCoNLLU(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	checkSample(t, doc)
}

func TestDecodeCoNLLU_TokenRange(t *testing.T) {
	input := "1\tИван\t_\tPROPN\t_\t_\t2\tnsubj\t_\tNER=B-PER|TokenRange=10:14\n" +
		"2\tспит\t_\tVERB\t_\tTense=Pres\t0\troot\t_\tTokenRange=15:19\n"

	doc, err := DecodeCoNLLU(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	if doc.Tokens[0].Start != 10 || doc.Tokens[0].Stop != 14 {
		t.Errorf("expected TokenRange offsets 10:14, got %d:%d", doc.Tokens[0].Start, doc.Tokens[0].Stop)
	}
	if len(doc.Spans) != 1 || doc.Spans[0].Start != 10 || doc.Spans[0].Text != "Иван" {
		t.Errorf("unexpected spans: %+v", doc.Spans)
	}
}

func TestDecodeCoNLLU_BIOEdgeCases(t *testing.T) {
	// I- after O opens a new span; a type change closes the previous one
	input := "1\tОАО\t_\tNOUN\t_\t_\t0\troot\t_\tNER=I-ORG\n" +
		"2\tГазпром\t_\tPROPN\t_\t_\t1\tflat\t_\tNER=I-ORG\n" +
		"3\tМосква\t_\tPROPN\t_\t_\t1\tnmod\t_\tNER=I-LOC\n" +
		"4\tи\t_\tCCONJ\t_\t_\t1\tcc\t_\tNER=O\n" +
		"5\tПасха\t_\tPROPN\t_\t_\t1\tconj\t_\tNER=B-MISC\n"

	doc, err := DecodeCoNLLU(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	want := []model.Span{
		{Type: model.EntityOrganization, Start: 0, Stop: 11, Text: "ОАО Газпром"},
		{Type: model.EntityLocation, Start: 12, Stop: 18, Text: "Москва"},
		{Type: model.EntityOther, Start: 21, Stop: 26, Text: "Пасха"},
	}
	if len(doc.Spans) != len(want) {
		t.Fatalf("expected %d spans, got %+v", len(want), doc.Spans)
	}
	for i, s := range want {
		if doc.Spans[i] != s {
			t.Errorf("span %d: expected %+v, got %+v", i, s, doc.Spans[i])
		}
	}
}

func TestDecodeCoNLLU_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few columns", "1\tИван\t_\tPROPN\t_\t_\t0\troot\t_\n"},
		{"bad id", "x\tИван\t_\tPROPN\t_\t_\t0\troot\t_\t_\n"},
		{"bad head", "1\tИван\t_\tPROPN\t_\t_\ty\troot\t_\t_\n"},
		{"bad token range", "1\tИван\t_\tPROPN\t_\t_\t0\troot\t_\tTokenRange=4:1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCoNLLU(strings.NewReader(tt.input), "")
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestExtractCoNLLU(t *testing.T) {
	answer := "Here is the annotation:\n```conllu\n# text = Иван спит.\n1\tИван\t_\tPROPN\t_\t_\t2\tnsubj\t_\tNER=B-PER\n2\tспит\t_\tVERB\t_\tTense=Pres\t0\troot\t_\tSpaceAfter=No\n```\nDone."
	got := extractCoNLLU(answer)

	if strings.Contains(got, "```") || strings.Contains(got, "Done") || strings.Contains(got, "Here is") {
		t.Errorf("expected chatter to be removed, got %q", got)
	}
	doc, err := DecodeCoNLLU(strings.NewReader(got), "Иван спит.")
	if err != nil {
		t.Fatalf("DecodeCoNLLU failed: %v", err)
	}
	if len(doc.Tokens) != 2 || len(doc.Spans) != 1 {
		t.Errorf("expected 2 tokens and 1 span, got %d and %d", len(doc.Tokens), len(doc.Spans))
	}
}
