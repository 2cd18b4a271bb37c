package fetch

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DatasetFailure is one dataset that failed during a prefetch.
type DatasetFailure struct {
	Dataset string `json:"dataset"`
	Error   string `json:"error"`
	Err     error  `json:"-"`
}

// PrefetchResult partitions the datasets of a prefetch by outcome, in
// dataset declaration order.
type PrefetchResult struct {
	Succeeded []string         `json:"succeeded"`
	Failed    []DatasetFailure `json:"failed"`
}

// OK reports whether every dataset succeeded.
func (r PrefetchResult) OK() bool { return len(r.Failed) == 0 }

// Merge appends other's outcomes to r.
func (r PrefetchResult) Merge(other PrefetchResult) PrefetchResult {
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failed = append(r.Failed, other.Failed...)
	return r
}

type prefetchTask struct {
	dataset string
	run     func(ctx context.Context) error
}

// prefetch runs every task concurrently and waits for all of them.
// A failing task never cancels the others.
func prefetch(ctx context.Context, logger *zap.Logger, tasks []prefetchTask) PrefetchResult {
	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			errs[i] = t.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	res := PrefetchResult{Succeeded: []string{}, Failed: []DatasetFailure{}}
	for i, t := range tasks {
		if errs[i] != nil {
			logger.Warn("fetch: prefetch dataset failed", zap.String("dataset", t.dataset), zap.Error(errs[i]))
			res.Failed = append(res.Failed, DatasetFailure{Dataset: t.dataset, Error: errs[i].Error(), Err: errs[i]})
			continue
		}
		res.Succeeded = append(res.Succeeded, t.dataset)
	}
	return res
}
