package worker

import (
	"context"
	"sync"
)

// Run calls fn for every index in [0, n) on at most workers goroutines.
//
// results[i] holds fn's value for index i. started[i] is false when ctx was
// done before index i was handed to a worker; fn is never called for it.
// Run returns once every started call has finished.
func Run[T any](ctx context.Context, workers, n int, fn func(ctx context.Context, i int) T) (results []T, started []bool) {
	results = make([]T, n)
	started = make([]bool, n)
	if n == 0 {
		return results, started
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = fn(ctx, i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case indices <- i:
			started[i] = true
		}
	}
	close(indices)
	wg.Wait()

	return results, started
}
