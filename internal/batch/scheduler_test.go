package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"squeeze/internal/compressor"
	"squeeze/internal/ledger"
	"squeeze/internal/report"
)

type fakeCompressor struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
	started  []string
	finished map[string]bool
	// violations records files that started while an earlier batch's file
	// was still unfinished.
	violations []string
	batchOf    map[string]int
	fail       map[string]error
	panics     map[string]bool
}

func newFake(batches []Batch) *fakeCompressor {
	f := &fakeCompressor{
		finished: map[string]bool{},
		batchOf:  map[string]int{},
		fail:     map[string]error{},
		panics:   map[string]bool{},
	}
	for _, b := range batches {
		for _, p := range b.Paths {
			f.batchOf[p] = b.Index
		}
	}
	return f
}

func (f *fakeCompressor) Compress(ctx context.Context, job compressor.Job) compressor.Outcome {
	f.mu.Lock()
	for p, idx := range f.batchOf {
		if idx < f.batchOf[job.InputPath] && !f.finished[p] {
			f.violations = append(f.violations, job.InputPath)
			break
		}
	}
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.started = append(f.started, job.InputPath)
	failErr := f.fail[job.InputPath]
	shouldPanic := f.panics[job.InputPath]
	f.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.finished[job.InputPath] = true
	f.mu.Unlock()

	if shouldPanic {
		panic("codec exploded")
	}

	out := compressor.Outcome{InputPath: job.InputPath, FileName: baseName(job.InputPath), OriginalSize: 1000}
	if failErr != nil {
		out.CompressedSize = 1000
		out.Err = failErr
		return out
	}
	out.CompressedSize = 400
	out.SavedBytes = 600
	out.Percent = 60
	out.Succeeded = true
	out.OutputPath = job.OutputPath
	if job.Overwrite {
		out.OutputPath = job.InputPath
	}
	return out
}

func candidates(n int) []string {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("in/img%02d.jpg", i)
	}
	return paths
}

func TestPartition(t *testing.T) {
	batches := Partition(candidates(25), 10)
	sizes := []int{}
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("batch %d has index %d", i, b.Index)
		}
		sizes = append(sizes, len(b.Paths))
	}
	if fmt.Sprint(sizes) != "[10 10 5]" {
		t.Errorf("sizes = %v, want [10 10 5]", sizes)
	}
	if batches[2].Paths[0] != "in/img20.jpg" {
		t.Errorf("third batch starts at %q", batches[2].Paths[0])
	}
}

func TestPartition_Edges(t *testing.T) {
	if got := Partition(nil, 10); len(got) != 0 {
		t.Errorf("empty input produced %d batches", len(got))
	}
	if got := Partition(candidates(10), 10); len(got) != 1 {
		t.Errorf("exact fit produced %d batches", len(got))
	}
	if got := Partition(candidates(3), 0); len(got) != 3 {
		t.Errorf("size 0 should clamp to 1, got %d batches", len(got))
	}
}

func TestRun_BatchesAreSequentialAndBounded(t *testing.T) {
	paths := candidates(25)
	fake := newFake(Partition(paths, 10))
	l := ledger.New(nil)
	r := report.New()

	stats, err := New(fake, nil).Run(context.Background(), paths, Options{
		InputRoot: "in", OutputDir: "out", Quality: 70, BatchSize: 10, Concurrency: 3,
	}, l, r)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Batches != 3 || stats.Processed != 25 || stats.Compressed != 25 {
		t.Errorf("stats = %+v", stats)
	}
	if fake.maxSeen > 3 {
		t.Errorf("saw %d concurrent tasks, limit 3", fake.maxSeen)
	}
	if len(fake.violations) != 0 {
		t.Errorf("files started before the previous batch finished: %v", fake.violations)
	}
	if l.Len() != 25 || r.Len() != 25 {
		t.Errorf("ledger=%d report=%d, want 25 each", l.Len(), r.Len())
	}
	for _, p := range paths {
		e, ok := l.Lookup(p)
		if !ok || !e.WasCompressed || e.QualityLevel != 70 {
			t.Errorf("ledger entry for %s = %+v, %v", p, e, ok)
		}
	}
}

func TestRun_FailuresAreRecordedNotFatal(t *testing.T) {
	paths := candidates(6)
	fake := newFake(Partition(paths, 4))
	fake.fail[paths[1]] = compressor.ErrSizeRegression
	fake.fail[paths[4]] = &compressor.DecodeError{Path: paths[4], Err: errors.New("bad huffman table")}
	fake.panics[paths[2]] = true

	l := ledger.New(nil)
	r := report.New()
	updates := make(chan ProgressUpdate, 64)

	stats, err := New(fake, updates).Run(context.Background(), paths, Options{
		InputRoot: "in", OutputDir: "out", Quality: 60, BatchSize: 4, Concurrency: 2,
	}, l, r)
	close(updates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Processed != 6 || stats.Compressed != 3 || stats.Failed != 3 {
		t.Errorf("stats = %+v", stats)
	}
	for _, p := range []string{paths[1], paths[2], paths[4]} {
		e, ok := l.Lookup(p)
		if !ok || e.WasCompressed {
			t.Errorf("failed file %s should be in ledger as not compressed: %+v %v", p, e, ok)
		}
	}

	failedRows := 0
	for _, row := range r.Rows() {
		if row.OutputPath == "" {
			failedRows++
		}
	}
	if failedRows != 3 {
		t.Errorf("failed rows = %d, want 3", failedRows)
	}

	var total, processed, compressedN, failed int
	var batchesSeen []int
	for u := range updates {
		total += u.TotalDelta
		processed += u.ProcessedDelta
		compressedN += u.CompressedDelta
		failed += u.FailedDelta
		if u.Batch > 0 {
			batchesSeen = append(batchesSeen, u.Batch)
		}
	}
	if total != 6 || processed != 6 || compressedN != 3 || failed != 3 {
		t.Errorf("updates total=%d processed=%d compressed=%d failed=%d", total, processed, compressedN, failed)
	}
	if fmt.Sprint(batchesSeen) != "[1 2]" {
		t.Errorf("batch updates = %v", batchesSeen)
	}
}

func TestRun_OutputPathsMirrorInputTree(t *testing.T) {
	paths := []string{"in/a.jpg", "in/sub/b.jpg"}
	fake := newFake(Partition(paths, 10))
	r := report.New()

	_, err := New(fake, nil).Run(context.Background(), paths, Options{
		InputRoot: "in", OutputDir: "out", Quality: 70, BatchSize: 10, Concurrency: 2,
	}, ledger.New(nil), r)
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]bool{}
	for _, row := range r.Rows() {
		got[row.OutputPath] = true
	}
	if !got["out/a.jpg"] || !got["out/sub/b.jpg"] {
		t.Errorf("output paths = %v", got)
	}
}

func TestRun_OverwriteReportsInputPath(t *testing.T) {
	paths := []string{"in/a.jpg"}
	r := report.New()
	_, err := New(newFake(Partition(paths, 1)), nil).Run(context.Background(), paths, Options{
		InputRoot: "in", Quality: 70, Overwrite: true, BatchSize: 1, Concurrency: 1,
	}, ledger.New(nil), r)
	if err != nil {
		t.Fatal(err)
	}
	if rows := r.Rows(); rows[0].OutputPath != "in/a.jpg" {
		t.Errorf("OutputPath = %q", rows[0].OutputPath)
	}
}

func TestRun_OutputCollidingWithInputFails(t *testing.T) {
	paths := []string{"in/a.jpg"}
	l := ledger.New(nil)
	r := report.New()
	stats, err := New(newFake(Partition(paths, 1)), nil).Run(context.Background(), paths, Options{
		InputRoot: "in", OutputDir: "in", Quality: 70, BatchSize: 1, Concurrency: 1,
	}, l, r)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || !l.Contains("in/a.jpg") {
		t.Errorf("stats = %+v", stats)
	}
	if !strings.Contains(r.Rows()[0].FileName, "a.jpg") {
		t.Errorf("row = %+v", r.Rows()[0])
	}
}
