package annotate

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a Russian NLP annotator. You output CoNLL-U and nothing else."

// BuildPrompt asks a language model for a CoNLL-U annotation of text
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Annotate the following Russian text in CoNLL-U format.

RULES:
1. One token per line, 10 tab-separated columns: ID FORM LEMMA UPOS XPOS FEATS HEAD DEPREL DEPS MISC.
2. Use Universal Dependencies POS tags, features (e.g. Tense=Past) and relations (e.g. nsubj).
3. Put named entities in MISC as NER=B-PER, NER=I-PER, NER=B-LOC, NER=I-LOC, NER=B-ORG, NER=I-ORG or NER=O.
4. Add SpaceAfter=No to MISC when the token is not followed by a space.
5. Separate sentences with an empty line and start each with "# text = <sentence>".
6. Copy token forms exactly as they appear in the text. Do not add commentary.

TEXT:
%s
`, text)
}

// extractCoNLLU strips markdown fences and chatter around a CoNLL-U answer
func extractCoNLLU(answer string) string {
	answer = strings.TrimSpace(answer)
	if i := strings.Index(answer, "```"); i >= 0 {
		rest := answer[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		answer = rest
	}

	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.Count(line, "\t") == numColumns-1 {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return strings.Join(lines, "\n")
}
