package parallel

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Map is a parallel mapping function, which runs mapFunc over a slice with a
// bounded number of goroutines and waits for completion. Results are index
// aligned with the input regardless of the order the calls finish in.
// The first error cancels the context passed to the calls in flight,
// no new calls are started and Do returns that error.
//
//	out, err := parallel.NewMap(limit, f).Do(ctx, input)
type Map[E, D any] struct {
	limit     int
	mapFunc   func(context.Context, E) (D, error)
	completed atomic.Int64
}

// NewMap returns a Map running at most limit calls at once. A limit < 1
// means the number of CPUs.
func NewMap[E, D any](limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	return &Map[E, D]{
		limit:   limit,
		mapFunc: mapFunc,
	}
}

func (m *Map[E, D]) Do(ctx context.Context, input []E) ([]D, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.limit)

	out := make([]D, len(input))
	for idx, entry := range input {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := m.mapFunc(gctx, entry)
			if err != nil {
				return err
			}
			out[idx] = d
			m.completed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Completed returns the number of calls finished so far. Safe to call
// concurrently with Do.
func (m *Map[E, D]) Completed() int64 {
	return m.completed.Load()
}
