package model

import "strings"

// EntityType classifies a named-entity span
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityLocation     EntityType = "LOCATION"
	EntityOrganization EntityType = "ORGANIZATION"
	EntityOther        EntityType = "OTHER"
)

// entityAliases maps annotator labels onto the closed set of entity types
var entityAliases = map[string]EntityType{
	"PER":          EntityPerson,
	"PERSON":       EntityPerson,
	"LOC":          EntityLocation,
	"LOCATION":     EntityLocation,
	"ORG":          EntityOrganization,
	"ORGANIZATION": EntityOrganization,
}

// ParseEntityType maps an annotator label to an EntityType.
// Unknown labels become EntityOther.
func ParseEntityType(label string) EntityType {
	if t, ok := entityAliases[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return t
	}
	return EntityOther
}

// Short returns the compact label used in CoNLL-U and JSON annotations
func (t EntityType) Short() string {
	switch t {
	case EntityPerson:
		return "PER"
	case EntityLocation:
		return "LOC"
	case EntityOrganization:
		return "ORG"
	default:
		return "MISC"
	}
}

// PartOfSpeech is a Universal Dependencies part-of-speech tag
type PartOfSpeech string

const (
	POSAdj   PartOfSpeech = "ADJ"
	POSAdp   PartOfSpeech = "ADP"
	POSAdv   PartOfSpeech = "ADV"
	POSAux   PartOfSpeech = "AUX"
	POSCconj PartOfSpeech = "CCONJ"
	POSDet   PartOfSpeech = "DET"
	POSIntj  PartOfSpeech = "INTJ"
	POSNoun  PartOfSpeech = "NOUN"
	POSNum   PartOfSpeech = "NUM"
	POSPart  PartOfSpeech = "PART"
	POSPron  PartOfSpeech = "PRON"
	POSPropn PartOfSpeech = "PROPN"
	POSPunct PartOfSpeech = "PUNCT"
	POSSconj PartOfSpeech = "SCONJ"
	POSSym   PartOfSpeech = "SYM"
	POSVerb  PartOfSpeech = "VERB"
	POSX     PartOfSpeech = "X"
)

var validPOS = map[PartOfSpeech]bool{
	POSAdj: true, POSAdp: true, POSAdv: true, POSAux: true, POSCconj: true,
	POSDet: true, POSIntj: true, POSNoun: true, POSNum: true, POSPart: true,
	POSPron: true, POSPropn: true, POSPunct: true, POSSconj: true, POSSym: true,
	POSVerb: true, POSX: true,
}

// ParsePartOfSpeech maps a tag to a PartOfSpeech. Unknown tags become POSX.
func ParsePartOfSpeech(tag string) PartOfSpeech {
	p := PartOfSpeech(strings.ToUpper(strings.TrimSpace(tag)))
	if validPOS[p] {
		return p
	}
	return POSX
}

// RelNominalSubject is the dependency label linking a verb to its subject
const RelNominalSubject = "nsubj"

// Span is a labeled region [Start, Stop) of the source text
type Span struct {
	Type  EntityType `json:"type"`
	Start int        `json:"start"`
	Stop  int        `json:"stop"`
	Text  string     `json:"text"`
}

// Contains reports whether offset falls inside the span
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset < s.Stop
}

// Token is a word-level unit with its syntactic and morphological annotation
type Token struct {
	ID     string            `json:"id"`
	HeadID string            `json:"head_id"`
	Rel    string            `json:"rel"`
	POS    PartOfSpeech      `json:"pos"`
	Start  int               `json:"start"`
	Stop   int               `json:"stop"`
	Text   string            `json:"text"`
	Feats  map[string]string `json:"feats,omitempty"`
}

// Document is the annotation of one corpus file
type Document struct {
	Path   string  `json:"path,omitempty"`
	Spans  []Span  `json:"spans"`
	Tokens []Token `json:"tokens"`
}

// Source is a cleaned corpus file handed to an annotator
type Source struct {
	Path string
	Text string
}
