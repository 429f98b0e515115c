// Package worker runs a function over a slice of inputs on a bounded pool of
// goroutines and returns the results in input order.
package worker

import (
	"context"
	"sync"
)

// Result pairs one input with its output or error.
type Result[I, O any] struct {
	Input  I
	Output O
	Err    error
}

// Run calls fn for every input using at most concurrency goroutines.
// results[i] always corresponds to inputs[i]. Once ctx is canceled, inputs
// that have not started are not passed to fn and carry ctx.Err() instead.
func Run[I, O any](ctx context.Context, inputs []I, concurrency int, fn func(context.Context, I) (O, error)) []Result[I, O] {
	results := make([]Result[I, O], len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if concurrency < 1 {
		concurrency = 1
	}
	concurrency = min(concurrency, len(inputs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i].Input = inputs[i]
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Output, results[i].Err = fn(ctx, inputs[i])
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
