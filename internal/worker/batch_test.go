package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/reltext/internal/model"
)

// fakeProcessor implements Processor
type fakeProcessor struct {
	failSuffix string
	delay      time.Duration
	calls      int32
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, path string) *model.DocumentResult {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &model.DocumentResult{
				Status: model.DocumentStatus{Path: path, Error: ctx.Err().Error()},
				Err:    ctx.Err(),
			}
		}
	}
	if f.failSuffix != "" && strings.HasSuffix(path, f.failSuffix) {
		err := errors.New("annotator unavailable")
		return &model.DocumentResult{
			Status: model.DocumentStatus{Path: path, Error: err.Error()},
			Err:    err,
		}
	}
	rel := model.NewRelations()
	rel.PersonLocation.Inc(model.PersonLocation{Person: "Иван", Location: path})
	return &model.DocumentResult{
		Status:    model.DocumentStatus{Path: path, OK: true, Relations: 1},
		Relations: rel,
	}
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	proc := &fakeProcessor{delay: time.Millisecond}
	batch := NewBatchProcessor(proc, 2)

	paths := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}
	results := batch.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Status.Path != paths[i] {
			t.Errorf("result %d: expected path %s, got %s", i, paths[i], res.Status.Path)
		}
		if res.Err != nil {
			t.Errorf("unexpected error for %s: %v", paths[i], res.Err)
		}
		if res.Relations == nil || res.Relations.Len() != 1 {
			t.Errorf("expected one relation for %s", paths[i])
		}
	}
	if calls := atomic.LoadInt32(&proc.calls); calls != int32(len(paths)) {
		t.Errorf("expected %d calls, got %d", len(paths), calls)
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	batch := NewBatchProcessor(&fakeProcessor{failSuffix: "bad.txt"}, 2)

	results := batch.ProcessPaths(context.Background(), []string{"good.txt", "bad.txt"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil || !results[0].Status.OK {
		t.Errorf("expected good.txt to succeed, got %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("expected error for bad.txt")
	}
	if results[1].Relations != nil {
		t.Error("expected no relations on error")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	batch := NewBatchProcessor(&fakeProcessor{}, 4)
	if results := batch.ProcessPaths(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := NewBatchProcessor(&fakeProcessor{delay: time.Second}, 1)
	paths := []string{"a.txt", "b.txt", "c.txt"}
	results := batch.ProcessPaths(ctx, paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}
	for i, res := range results {
		if res.Err == nil {
			t.Errorf("expected error for cancelled document %s", paths[i])
		}
		if res.Status.Path != paths[i] {
			t.Errorf("expected path %s, got %s", paths[i], res.Status.Path)
		}
	}
}

func TestBatchProcessor_NilResult(t *testing.T) {
	batch := NewBatchProcessor(nilProcessor{}, 2)
	results := batch.ProcessPaths(context.Background(), []string{"x.txt"})
	if len(results) != 1 || !errors.Is(results[0].Err, errNoResult) {
		t.Fatalf("expected failed result for x.txt, got %+v", results)
	}
	if results[0].Status.Path != "x.txt" || results[0].Status.OK {
		t.Errorf("unexpected status %+v", results[0].Status)
	}
}

type nilProcessor struct{}

func (nilProcessor) ProcessDocument(ctx context.Context, path string) *model.DocumentResult {
	return nil
}
