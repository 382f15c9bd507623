package streamsim

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// batchLookahead is how many records a worker may produce ahead of
// delivery for a source that is not yet being delivered.
const batchLookahead = 16

// Opener opens a named source for Batch. The returned reader is closed by
// the engine.
type Opener func(ctx context.Context, name string) (io.ReadCloser, error)

// Result is one delivery of a batch. Every source yields its records in
// order, each as a Result with Done unset, followed by exactly one Result
// with Done set. Err on the Done result holds a per-source failure (open,
// read or close); records delivered before a read failure stay valid.
type Result struct {
	Index  int
	Name   string
	Record Record // valid when Done is false
	Done   bool
	Err    error
}

// batchJob is one source in flight: the worker writes its results to out
// and closes out when the source is finished.
type batchJob struct {
	index int
	out   chan Result
}

// Batch fingerprints names concurrently on up to workers goroutines and
// calls deliver from the calling goroutine, in input order. Records of the
// source currently being delivered are passed on as they are produced, so
// block-mode output starts before a source is exhausted. Later sources run
// ahead by at most a few records each, which keeps memory bounded
// regardless of source size.
//
// Per-source errors are reported through Result.Err. Batch itself fails
// only when ctx is cancelled or deliver returns an error, in which case
// outstanding work is abandoned and that error is returned.
func (e *Engine) Batch(ctx context.Context, names []string, open Opener, workers int, deliver func(Result) error) error {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan batchJob)
	order := make(chan chan Result, workers)

	g.Go(func() error {
		defer close(work)
		defer close(order)
		for i := range names {
			if err := gctx.Err(); err != nil {
				return err
			}
			job := batchJob{index: i, out: make(chan Result, batchLookahead)}
			select {
			case work <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
			// A worker owns job.out from here and always closes it.
			select {
			case order <- job.out:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			for job := range work {
				if err := e.fingerprintOne(gctx, job.index, names[job.index], open, job.out); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var deliverErr error
deliverLoop:
	for out := range order {
		for r := range out {
			if err := deliver(r); err != nil {
				deliverErr = err
				cancel()
				break deliverLoop
			}
		}
	}
	waitErr := g.Wait()

	if deliverErr != nil {
		return deliverErr
	}
	return waitErr
}

// fingerprintOne streams the results of one source into out and closes it.
// It returns an error only when ctx is cancelled while sending.
func (e *Engine) fingerprintOne(ctx context.Context, index int, name string, open Opener, out chan<- Result) error {
	defer close(out)
	send := func(r Result) error {
		r.Index, r.Name = index, name
		select {
		case out <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rc, err := open(ctx, name)
	if err != nil {
		return send(Result{Done: true, Err: err})
	}
	s := e.Open(ctx, rc)
	defer func() { _ = s.Close() }()
	for s.Next() {
		if err := send(Result{Record: s.Record()}); err != nil {
			return err
		}
	}
	return send(Result{Done: true, Err: s.Err()})
}
