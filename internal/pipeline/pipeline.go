package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/reltext/internal/aggregate"
	"github.com/ppiankov/reltext/internal/annotate"
	"github.com/ppiankov/reltext/internal/cache"
	"github.com/ppiankov/reltext/internal/extract"
	"github.com/ppiankov/reltext/internal/model"
	"github.com/ppiankov/reltext/internal/morph"
	"github.com/ppiankov/reltext/internal/validate"
	"github.com/ppiankov/reltext/internal/worker"
)

// Pipeline orchestrates the corpus analysis: load, annotate, validate, extract, aggregate
type Pipeline struct {
	config     *model.Config
	loader     *Loader
	annotator  annotate.Annotator
	validator  *validate.Validator
	normalizer *morph.Normalizer
	extractor  *extract.Extractor
	limiter    *worker.Limiter
	memo       *cache.MemoryCache
	logger     *slog.Logger
	runID      string
}

// Options overrides collaborators that NewPipeline would otherwise build from config
type Options struct {
	Annotator annotate.Annotator
	Analyzer  morph.Analyzer
	Logger    *slog.Logger
	RunID     string
}

// NewPipeline builds the shared collaborators once for the whole run
func NewPipeline(cfg *model.Config, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	annotator := opts.Annotator
	if annotator == nil {
		a, err := annotate.NewAnnotator(cfg.Annotator, cfg.HTTP, limiter)
		if err != nil {
			return nil, fmt.Errorf("annotator: %w", err)
		}
		annotator = a
	}
	if cfg.Cache.Enabled && annotate.Cacheable(annotator) {
		store := cache.NewLayeredCache(cfg.Cache)
		annotator = annotate.NewCached(annotator, store, cfg.Cache.TTL, logger)
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		a, err := morph.NewAnalyzer(cfg.Morph, cfg.HTTP, limiter)
		if err != nil {
			return nil, fmt.Errorf("morph analyzer: %w", err)
		}
		analyzer = a
	}
	memo := cache.NewMemoryCache(0, 10*time.Minute)
	normalizer := morph.NewNormalizer(analyzer, memo, logger)

	return &Pipeline{
		config:     cfg,
		loader:     NewLoader(cfg.Input.Dir, cfg.Input.Patterns, DefaultMaxBytes),
		annotator:  annotator,
		validator:  validate.NewValidator(0),
		normalizer: normalizer,
		extractor:  extract.NewExtractor(normalizer),
		limiter:    limiter,
		memo:       memo,
		logger:     logger,
		runID:      opts.RunID,
	}, nil
}

// ProcessDocument analyzes one corpus file. Failures are reported in the
// result, never returned, so one document cannot abort the run.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) *model.DocumentResult {
	start := time.Now()
	status := model.DocumentStatus{Path: path}
	fail := func(stage string, err error) *model.DocumentResult {
		err = fmt.Errorf("%s: %w", stage, err)
		status.Error = err.Error()
		status.Duration = time.Since(start)
		p.logger.Warn("skipping document", "path", path, "stage", stage, "error", err)
		return &model.DocumentResult{Status: status, Err: err}
	}

	src, err := p.loader.Load(path)
	if err != nil {
		return fail("load", err)
	}
	if strings.TrimSpace(src.Text) == "" {
		status.OK = true
		status.Duration = time.Since(start)
		p.logger.Info("document is empty after cleaning", "path", path)
		return &model.DocumentResult{Status: status, Relations: model.NewRelations()}
	}

	doc, err := p.annotator.Annotate(ctx, src)
	if err != nil {
		return fail("annotate", err)
	}
	doc.Path = path
	status.Spans = len(doc.Spans)
	status.Tokens = len(doc.Tokens)

	issues, err := p.validator.Validate(doc, utf8.RuneCountInString(src.Text))
	if err != nil {
		return fail("validate", err)
	}
	for _, issue := range issues {
		p.logger.Debug("annotation issue", "path", path, "issue", issue.String())
	}

	rel := p.extractor.Extract(ctx, doc)
	if err := ctx.Err(); err != nil {
		return fail("extract", err)
	}

	status.OK = true
	status.Relations = rel.Len()
	status.Duration = time.Since(start)
	p.logger.Info("document processed",
		"path", path,
		"spans", status.Spans,
		"tokens", status.Tokens,
		"relations", status.Relations,
		"duration", status.Duration)

	return &model.DocumentResult{Status: status, Relations: rel}
}

// Run analyzes every corpus file and returns the aggregated report
func (p *Pipeline) Run(ctx context.Context) (*model.Report, error) {
	paths, err := p.loader.Discover()
	if err != nil {
		return nil, err
	}
	p.logger.Info("corpus discovered", "dir", p.config.Input.Dir, "documents", len(paths), "annotator", p.annotator.Name())

	batch := worker.NewBatchProcessor(p, p.config.Concurrency.Workers)
	results := batch.ProcessPaths(ctx, paths)

	agg := aggregate.NewAggregator()
	report := &model.Report{
		RunID:       p.runID,
		GeneratedAt: time.Now().UTC(),
		InputDir:    p.config.Input.Dir,
		Annotator:   p.annotator.Name(),
		Documents:   make([]model.DocumentStatus, 0, len(results)),
	}
	for _, res := range results {
		report.Documents = append(report.Documents, res.Status)
		if res.Err == nil {
			agg.Add(res.Relations)
		}
	}
	aggregate.Fill(report, agg.Relations())

	memoHits, memoMisses := p.memo.Stats()
	p.logger.Info("corpus analyzed",
		"documents", len(results),
		"aggregated", agg.Documents(),
		"failed", len(report.Failed()),
		"person_location", len(report.PersonLocation),
		"person_action", len(report.PersonAction),
		"location_organization", len(report.LocationOrganization),
		"organization_action", len(report.OrganizationAction),
		"throttled_calls", p.limiter.Delayed(),
		"normalized_words", p.memo.Len(),
		"normalizer_hits", memoHits,
		"normalizer_misses", memoMisses)

	return report, ctx.Err()
}
