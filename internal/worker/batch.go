package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/reltext/internal/model"
)

var errNoResult = errors.New("processor returned no result")

// Processor turns one corpus file into a DocumentResult.
// Implementations must never panic on bad input; failures go into the result.
type Processor interface {
	ProcessDocument(ctx context.Context, path string) *model.DocumentResult
}

// BatchProcessor processes corpus files concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessPaths processes every path and returns one result per path, in input order.
// Paths left unprocessed because ctx was cancelled get a failed result.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*model.DocumentResult {
	results, started := Run(ctx, b.concurrency, len(paths), func(ctx context.Context, i int) *model.DocumentResult {
		return b.processor.ProcessDocument(ctx, paths[i])
	})

	for i, res := range results {
		switch {
		case res != nil:
			continue
		case started[i]:
			results[i] = failed(paths[i], errNoResult)
		default:
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("document was not processed")
			}
			results[i] = failed(paths[i], err)
		}
	}
	return results
}

func failed(path string, err error) *model.DocumentResult {
	return &model.DocumentResult{
		Status: model.DocumentStatus{Path: path, Error: err.Error()},
		Err:    err,
	}
}
