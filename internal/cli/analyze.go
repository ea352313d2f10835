package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/reltext/internal/logging"
	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/pipeline"
	"github.com/ppiankov/reltext/internal/store"
)

var (
	analyzeTimeout time.Duration
	noCache        bool
	noSummary      bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [dir]",
	Short: "Extract entity relations from a directory of texts",
	Long: `Analyze processes every matching file of a corpus directory:
- Load and clean the text (Project Gutenberg banners, HTML markup)
- Annotate named entities and dependency syntax with the configured backend
- Count person/location and location/organization co-occurrences
- Count persons and organizations acting as verb subjects, with tense
- Write the aggregated frequency tables

Documents that fail are skipped and listed; the command fails only when
every document failed.

Example:
  reltext analyze texts
  reltext analyze texts --annotator conllu -o results.txt
  reltext analyze texts --annotator command --annotator-command ./annotate.sh
  reltext analyze texts --annotator openai --model gpt-4o-mini --json report.json
  reltext analyze texts --morph dictionary --lexicon ru.tsv --db runs.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

// analyzeFlags maps flag names onto config keys
var analyzeFlags = map[string]string{
	"input":             "input.dir",
	"pattern":           "input.patterns",
	"output":            "output.path",
	"json":              "output.json",
	"md":                "output.markdown",
	"db":                "output.db",
	"lang":              "output.language",
	"summary-rows":      "output.summary_rows",
	"annotator":         "annotator.backend",
	"annotator-url":     "annotator.url",
	"annotator-command": "annotator.command",
	"model":             "annotator.model",
	"morph":             "morph.backend",
	"lexicon":           "morph.lexicon",
	"morph-url":         "morph.url",
	"workers":           "concurrency.workers",
	"ua":                "http.user_agent",
	"http-proxy":        "http.http_proxy",
	"https-proxy":       "http.https_proxy",
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input and output flags
	analyzeCmd.Flags().String("input", "", "corpus directory (default: texts)")
	analyzeCmd.Flags().StringSlice("pattern", nil, "file name patterns (default: *.txt)")
	analyzeCmd.Flags().StringP("output", "o", "", "text report path (default: analysis_results.txt)")
	analyzeCmd.Flags().String("json", "", "output JSON path (optional)")
	analyzeCmd.Flags().String("md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().String("db", "", "export to a SQLite database (optional)")
	analyzeCmd.Flags().String("lang", "", "report labels: ru or en (default: ru)")
	analyzeCmd.Flags().Int("summary-rows", 0, "rows per table in the terminal summary")
	analyzeCmd.Flags().BoolVar(&noSummary, "no-summary", false, "do not print the terminal summary")

	// Annotation flags
	analyzeCmd.Flags().String("annotator", "", "annotation backend (http, command, conllu, openai, anthropic, ollama)")
	analyzeCmd.Flags().String("annotator-url", "", "annotation service URL")
	analyzeCmd.Flags().String("annotator-command", "", "annotation command (text on stdin, CoNLL-U on stdout)")
	analyzeCmd.Flags().String("model", "", "LLM model for openai/ollama backends")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable annotation cache")

	// Normalization flags
	analyzeCmd.Flags().String("morph", "", "morphological analyzer (dictionary, http, none)")
	analyzeCmd.Flags().String("lexicon", "", "lexicon file for the dictionary analyzer")
	analyzeCmd.Flags().String("morph-url", "", "morphology service URL")

	// Runtime flags
	analyzeCmd.Flags().Int("workers", 0, "number of concurrent document workers (default: number of CPUs)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0, "overall timeout (0 = none)")
	analyzeCmd.Flags().String("ua", "", "HTTP User-Agent for annotation and morphology services")
	analyzeCmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	analyzeCmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	for name, key := range analyzeFlags {
		_ = viper.BindPFlag(key, analyzeCmd.Flags().Lookup(name))
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Input.Dir = args[0]
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noSummary {
		cfg.Output.Summary = false
	}

	logger, closer, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	logger, runID := logging.WithRunID(logger)

	renderer, err := pipeline.NewRenderer(cfg.Output.Language)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, analyzeTimeout)
		defer cancel()
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: logger, RunID: runID})
	if err != nil {
		return err
	}

	report, runErr := p.Run(ctx)
	if report == nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}

	if err := writeOutputs(ctx, cfg, renderer, report); err != nil {
		return err
	}
	if cfg.Output.Summary {
		renderer.RenderSummary(cmd.OutOrStdout(), report, cfg.Output.SummaryRows)
	}

	if runErr != nil {
		return fmt.Errorf("analysis interrupted, partial report written: %w", runErr)
	}
	if n := len(report.Documents); n == 0 {
		logger.Warn("no documents matched", "dir", cfg.Input.Dir, "patterns", cfg.Input.Patterns)
	} else if len(report.Failed()) == n {
		return fmt.Errorf("all %d documents failed", n)
	}
	return nil
}

func writeOutputs(ctx context.Context, cfg *model.Config, renderer *pipeline.Renderer, report *model.Report) error {
	outputs := []struct {
		path   string
		render func(io.Writer, *model.Report) error
	}{
		{cfg.Output.Path, renderer.RenderText},
		{cfg.Output.JSON, renderer.RenderJSON},
		{cfg.Output.Markdown, renderer.RenderMarkdown},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		err := pipeline.WriteFile(out.path, func(w io.Writer) error { return out.render(w, report) })
		if err != nil {
			return fmt.Errorf("write %s: %w", out.path, err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", out.path)
		}
	}

	if cfg.Output.DB != "" {
		// The run context may already be cancelled
		runID, err := store.Export(context.WithoutCancel(ctx), cfg.Output.DB, report)
		if err != nil {
			return fmt.Errorf("export %s: %w", cfg.Output.DB, err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Exported run %s to %s\n", runID, cfg.Output.DB)
		}
	}
	return nil
}
