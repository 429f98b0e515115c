package stamp

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tbckr/stamp/internal/worker"
)

// StampAll stamps version into every target using up to concurrency workers.
// Results are returned in target order, including those of failed targets;
// the error aggregates every per-target failure.
func (s *Stamper) StampAll(ctx context.Context, targets []Target, version string, concurrency int) ([]Result, error) {
	if err := s.CheckVersion(version); err != nil {
		return nil, err
	}
	runs := worker.Run(ctx, targets, concurrency, func(ctx context.Context, t Target) (Result, error) {
		return s.Stamp(ctx, t, version)
	})

	results := make([]Result, len(runs))
	var merr *multierror.Error
	for i, r := range runs {
		results[i] = r.Output
		results[i].Target = r.Input
		if r.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Input.DisplayName(), r.Err))
		}
	}
	return results, merr.ErrorOrNil()
}

// VerifyAll verifies every target. expect may be empty.
func (s *Stamper) VerifyAll(ctx context.Context, targets []Target, expect string, concurrency int) ([]Status, error) {
	return collectStatuses(worker.Run(ctx, targets, concurrency, func(ctx context.Context, t Target) (Status, error) {
		return s.Verify(ctx, t, expect)
	}))
}

// CurrentAll reads the state of every target.
func (s *Stamper) CurrentAll(ctx context.Context, targets []Target, concurrency int) ([]Status, error) {
	return collectStatuses(worker.Run(ctx, targets, concurrency, s.Current))
}

func collectStatuses(runs []worker.Result[Target, Status]) ([]Status, error) {
	statuses := make([]Status, len(runs))
	var merr *multierror.Error
	for i, r := range runs {
		statuses[i] = r.Output
		statuses[i].Target = r.Input
		if r.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Input.DisplayName(), r.Err))
		}
	}
	return statuses, merr.ErrorOrNil()
}
