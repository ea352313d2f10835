// Manual harness: decode one CoNLL-U file against its text and print the
// relations found in it, without the corpus pipeline.
//
//	go run ./cmd/conllu-relations texts/a.txt texts/a.conllu
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/reltext/internal/aggregate"
	"github.com/ppiankov/reltext/internal/annotate"
	"github.com/ppiankov/reltext/internal/extract"
	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/pipeline"
	"github.com/ppiankov/reltext/internal/validate"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: conllu-relations <text-file> <conllu-file>")
		os.Exit(2)
	}

	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read text: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Open(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "open annotation: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = f.Close() }()

	fmt.Println("=== CoNLL-U Relation Extraction ===")
	fmt.Println()

	doc, err := annotate.DecodeCoNLLU(f, string(text))
	if err != nil {
		fmt.Fprintf(os.Stderr, "decode: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Tokens: %d\n", len(doc.Tokens))
	fmt.Printf("Spans:  %d\n", len(doc.Spans))
	for _, s := range doc.Spans {
		fmt.Printf("  %-6s [%d:%d] %s\n", s.Type.Short(), s.Start, s.Stop, s.Text)
	}

	issues, err := validate.NewValidator(0).Validate(doc, len([]rune(string(text))))
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		os.Exit(1)
	}
	if len(issues) > 0 {
		fmt.Printf("\n⚠️  %d annotation issues\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))

	rel := extract.NewExtractor(nil).Extract(context.Background(), doc)
	report := &model.Report{}
	aggregate.Fill(report, rel)

	renderer, _ := pipeline.NewRenderer("ru")
	if err := renderer.RenderText(os.Stdout, report); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
}
