package annotate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ppiankov/reltext/internal/cache"
	"github.com/ppiankov/reltext/internal/model"
)

// Cached stores annotations by backend and text hash so reruns over the same
// corpus skip the annotator
type Cached struct {
	next   Annotator
	store  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with store. logger may be nil.
func NewCached(next Annotator, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cached{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Name returns the wrapped backend name
func (c *Cached) Name() string { return c.next.Name() }

// Annotate returns the cached annotation of src.Text or asks the wrapped annotator
func (c *Cached) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	key := cache.Key(c.next.Name(), src.Text)
	if data, ok := c.store.Get(key); ok {
		var doc model.Document
		if err := json.Unmarshal(data, &doc); err == nil {
			doc.Path = src.Path
			c.logger.Debug("annotation cache hit", "path", src.Path)
			return &doc, nil
		}
		c.logger.Warn("dropping unreadable cache entry", "path", src.Path, "key", key)
		_ = c.store.Delete(key)
	}

	doc, err := c.next.Annotate(ctx, src)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("cannot encode annotation for cache", "path", src.Path, "error", err)
		return doc, nil
	}
	if err := c.store.Set(key, data, c.ttl); err != nil {
		c.logger.Warn("cannot store annotation in cache", "path", src.Path, "error", err)
	}
	return doc, nil
}
