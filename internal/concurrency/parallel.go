package concurrency

import (
	"context"
	"sync"
)

// Options bounds how many items are worked on at once.
type Options struct {
	MaxWorkers int
}

// DefaultOptions uses 4 workers.
func DefaultOptions() Options {
	return Options{MaxWorkers: 4}
}

func (o Options) workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = DefaultOptions().MaxWorkers
	}
	if w > n {
		w = n
	}
	return w
}

// ForEach calls fn for every item with at most MaxWorkers goroutines.
// The returned slice has one slot per item (nil on success), so callers
// can report failures in input order. Items not started before ctx is
// done get ctx.Err().
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts Options,
	fn func(ctx context.Context, index int, item T) error,
) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opts.workers(len(items)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				errs[i] = fn(ctx, i, items[i])
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return errs
}
