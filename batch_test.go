package streamsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
)

// memOpener serves named in-memory sources and counts closes.
type memOpener struct {
	mu     sync.Mutex
	files  map[string][]byte
	closed map[string]int
}

type memFile struct {
	*bytes.Reader
	name string
	o    *memOpener
}

func (f *memFile) Close() error {
	f.o.mu.Lock()
	defer f.o.mu.Unlock()
	f.o.closed[f.name]++
	return nil
}

func (o *memOpener) open(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := o.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: not found", name)
	}
	return &memFile{Reader: bytes.NewReader(data), name: name, o: o}, nil
}

func newMemOpener(t testing.TB, n int) (*memOpener, []string) {
	rng := newTestRNG(t)
	o := &memOpener{files: map[string][]byte{}, closed: map[string]int{}}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("file-%02d", i)
		data := make([]byte, 100+rng.IntN(3000))
		fillFromRNG(rng, data)
		o.files[names[i]] = data
	}
	return o, names
}

// sourceRun gathers the deliveries of one source.
type sourceRun struct {
	index   int
	name    string
	records []Record
	err     error
}

// collectBatch runs Batch and regroups deliveries per source, checking
// that sources arrive in input order and end with exactly one Done result.
func collectBatch(t *testing.T, eng *Engine, names []string, open Opener, workers int) []sourceRun {
	t.Helper()
	var runs []sourceRun
	pending := false
	err := eng.Batch(context.Background(), names, open, workers, func(r Result) error {
		if !pending {
			if r.Index != len(runs) {
				return fmt.Errorf("source %d delivered, want %d", r.Index, len(runs))
			}
			runs = append(runs, sourceRun{index: r.Index, name: r.Name})
			pending = true
		}
		cur := &runs[len(runs)-1]
		if r.Index != cur.index || r.Name != cur.name {
			return fmt.Errorf("source %d/%s interleaved with %d/%s", r.Index, r.Name, cur.index, cur.name)
		}
		if r.Done {
			cur.err = r.Err
			pending = false
			return nil
		}
		cur.records = append(cur.records, r.Record)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if pending {
		t.Fatal("last source has no Done result")
	}
	return runs
}

func TestBatchDeliversInOrder(t *testing.T) {
	o, names := newMemOpener(t, 25)
	names = append(names, "missing")
	eng := mustEngine(t, WithNGram(5))

	got := collectBatch(t, eng, names, o.open, 4)
	if len(got) != len(names) {
		t.Fatalf("delivered %d sources, want %d", len(got), len(names))
	}
	for i, r := range got {
		if r.name != names[i] {
			t.Fatalf("source %d is %s", i, r.name)
		}
		if r.name == "missing" {
			if r.err == nil {
				t.Error("missing source has no error")
			}
			continue
		}
		if r.err != nil {
			t.Fatalf("%s: %v", r.name, r.err)
		}
		if len(r.records) != 1 {
			t.Fatalf("%s: %d records", r.name, len(r.records))
		}
		if want := eng.Sum(o.files[r.name]); !r.records[0].Fingerprint.Equal(want) {
			t.Errorf("%s: batch fingerprint differs from sequential", r.name)
		}
		if o.closed[r.name] != 1 {
			t.Errorf("%s closed %d times", r.name, o.closed[r.name])
		}
	}
}

func TestBatchBlocks(t *testing.T) {
	o, names := newMemOpener(t, 6)
	eng := mustEngine(t, WithBlockSize(256))
	for _, r := range collectBatch(t, eng, names, o.open, 3) {
		if r.err != nil {
			t.Fatalf("%s: %v", r.name, r.err)
		}
		want := collectBlocks(t, eng, bytes.NewReader(o.files[r.name]))
		if len(r.records) != len(want) {
			t.Fatalf("%s: %d records, want %d", r.name, len(r.records), len(want))
		}
		for i, rec := range r.records {
			if rec.Block == nil || rec.Block.Index != want[i].Index || !rec.Fingerprint.Equal(want[i].Fingerprint) {
				t.Fatalf("%s: record %d differs", r.name, i)
			}
		}
	}
}

// countingSource counts bytes handed out, readable from another goroutine.
type countingSource struct {
	r    io.Reader
	read *atomic.Int64
}

func (c countingSource) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read.Add(int64(n))
	return n, err
}

func (c countingSource) Close() error { return nil }

func TestBatchStreamsBlocks(t *testing.T) {
	const size = 1 << 20
	data := make([]byte, size)
	fillFromRNG(newTestRNG(t), data)
	eng := mustEngine(t, WithBlockSize(1024), WithChunkSize(1024))

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var read atomic.Int64
			open := func(context.Context, string) (io.ReadCloser, error) {
				return countingSource{r: bytes.NewReader(data), read: &read}, nil
			}
			var records int
			var readAtFirst int64
			err := eng.Batch(context.Background(), []string{"big"}, open, workers, func(r Result) error {
				if r.Done {
					return r.Err
				}
				if records == 0 {
					readAtFirst = read.Load()
				}
				records++
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if records != size/1024 {
				t.Fatalf("got %d records, want %d", records, size/1024)
			}
			if readAtFirst >= size/4 {
				t.Errorf("first record delivered after %d of %d bytes were read", readAtFirst, size)
			}
		})
	}
}

func TestBatchReadErrorKeepsRecords(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 4)
	boom := errors.New("boom")
	open := func(context.Context, string) (io.ReadCloser, error) {
		return &trackingReader{data: data, max: 16, err: boom}, nil
	}
	eng := mustEngine(t, WithBlockSize(16), WithChunkSize(16))
	got := collectBatch(t, eng, []string{"flaky"}, open, 1)
	if len(got) != 1 {
		t.Fatalf("got %d sources", len(got))
	}
	if !errors.Is(got[0].err, boom) {
		t.Fatalf("error = %v, want boom", got[0].err)
	}
	if len(got[0].records) == 0 {
		t.Error("no records delivered before the read error")
	}
}

func TestBatchDeliverErrorStops(t *testing.T) {
	o, names := newMemOpener(t, 40)
	eng := mustEngine(t)
	stop := errors.New("stop")
	calls := 0
	err := eng.Batch(context.Background(), names, o.open, 4, func(r Result) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("error = %v, want stop", err)
	}
	if calls != 3 {
		t.Errorf("deliver called %d times after failing, want 3", calls)
	}
}

func TestBatchCancelled(t *testing.T) {
	o, names := newMemOpener(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := mustEngine(t).Batch(ctx, names, o.open, 2, func(Result) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBatchEmpty(t *testing.T) {
	err := mustEngine(t).Batch(context.Background(), nil, nil, 0, func(Result) error {
		t.Error("deliver called for empty batch")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
