package timing

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunBothBranches executes the real and dummy operations concurrently and
// returns the result of whichever was requested. Total latency is
// max(real, dummy), so an observer cannot tell from wall-clock time which
// branch the caller actually wanted.
//
// Cancellation is deliberately disabled for the duration of the block:
// letting a caller cancel one branch while the other runs to completion would
// itself leak which branch mattered. A plain errgroup (no shared-context
// cancellation) keeps both branches running even if one fails.
func RunBothBranches[T any](ctx context.Context, real, dummy func(context.Context) (T, error), wantReal bool) (T, error) {
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	var realVal, dummyVal T
	var realErr, dummyErr error
	g.Go(func() error {
		realVal, realErr = real(ctx)
		return nil
	})
	g.Go(func() error {
		dummyVal, dummyErr = dummy(ctx)
		return nil
	})
	_ = g.Wait()

	if wantReal {
		return realVal, realErr
	}
	return dummyVal, dummyErr
}
