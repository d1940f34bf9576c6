// Package batch runs compression over a candidate list in fixed-size
// batches. Files inside a batch run in parallel on a bounded pool; batches
// run one after another, which bounds how many decoded images are in memory
// at once.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"squeeze/internal/compressor"
	"squeeze/internal/ledger"
	"squeeze/internal/logging"
	"squeeze/internal/report"
)

// Partition splits paths into consecutive batches of size; the last batch
// may be shorter.
func Partition(paths []string, size int) []Batch {
	if size < 1 {
		size = 1
	}
	batches := make([]Batch, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := start + size
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, Batch{Index: len(batches), Paths: paths[start:end]})
	}
	return batches
}

// Scheduler dispatches compression jobs and folds their outcomes into a
// ledger and a report. Only the goroutine calling Run touches those.
type Scheduler struct {
	compressor Compressor
	updates    chan<- ProgressUpdate
}

// New returns a Scheduler. updates may be nil.
func New(c Compressor, updates chan<- ProgressUpdate) *Scheduler {
	return &Scheduler{compressor: c, updates: updates}
}

// Run compresses every candidate. Each outcome, success or failure, is
// recorded in l and r as it arrives. The only error returned is a failure to
// start a worker pool; per-file failures live in the outcomes.
func (s *Scheduler) Run(ctx context.Context, candidates []string, opts Options, l *ledger.Ledger, r *report.Report) (Stats, error) {
	stats := Stats{}
	batches := Partition(candidates, opts.BatchSize)
	s.send(ProgressUpdate{TotalDelta: len(candidates)})

	for _, b := range batches {
		s.send(ProgressUpdate{Batch: b.Index + 1, Batches: len(batches)})
		if err := s.runBatch(ctx, b, opts, l, r, &stats); err != nil {
			return stats, fmt.Errorf("batch %d/%d: %w", b.Index+1, len(batches), err)
		}
		stats.Batches++
		logging.Get().Info().
			Int("batch", b.Index+1).
			Int("batches", len(batches)).
			Int("files", len(b.Paths)).
			Msgf("Batch of %d files compressed", len(b.Paths))
	}
	return stats, nil
}

// runBatch owns one worker pool for the lifetime of one batch. The pool is
// released on every return path, after every submitted task has reported.
func (s *Scheduler) runBatch(ctx context.Context, b Batch, opts Options, l *ledger.Ledger, r *report.Report, stats *Stats) error {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	results := make(chan compressor.Outcome, len(b.Paths))
	var wg sync.WaitGroup

	for _, path := range b.Paths {
		job, err := s.job(path, opts)
		if err != nil {
			results <- compressor.Outcome{InputPath: path, FileName: baseName(path), Err: err}
			continue
		}

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results <- s.compress(ctx, job)
		})
		if submitErr != nil {
			wg.Done()
			results <- compressor.Outcome{InputPath: path, FileName: baseName(path), Err: submitErr}
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for outcome := range results {
		s.apply(outcome, opts, l, r, stats)
	}
	return nil
}

func (s *Scheduler) job(path string, opts Options) (compressor.Job, error) {
	job := compressor.Job{InputPath: path, Quality: opts.Quality, Overwrite: opts.Overwrite}
	if opts.Overwrite {
		return job, nil
	}
	out, err := compressor.ResolveOutput(opts.InputRoot, path, opts.OutputDir)
	if err != nil {
		return job, &compressor.EncodeError{Path: path, Err: err}
	}
	job.OutputPath = out
	return job, nil
}

// compress runs one job and converts a panic in the codec into a failed
// outcome so that the batch still completes.
func (s *Scheduler) compress(ctx context.Context, job compressor.Job) (out compressor.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = compressor.Outcome{
				InputPath: job.InputPath,
				FileName:  baseName(job.InputPath),
				Err:       &compressor.EncodeError{Path: job.InputPath, Err: fmt.Errorf("panic: %v", rec)},
			}
		}
	}()
	return s.compressor.Compress(ctx, job)
}

func (s *Scheduler) apply(o compressor.Outcome, opts Options, l *ledger.Ledger, r *report.Report, stats *Stats) {
	if o.FileName == "" {
		o.FileName = baseName(o.InputPath)
	}
	if !o.Succeeded && o.OriginalSize > 0 && o.CompressedSize == 0 {
		o.CompressedSize = o.OriginalSize
	}

	l.RecordProcessed(o.InputPath, o.Succeeded, opts.Quality)
	r.Add(opts.InputRoot, o)

	stats.Processed++
	update := ProgressUpdate{ProcessedDelta: 1}
	if o.Succeeded {
		stats.Compressed++
		stats.BytesSaved += o.SavedBytes
		update.CompressedDelta = 1
		update.BytesSavedDelta = o.SavedBytes
		logging.Get().Debug().
			Str("path", o.InputPath).
			Int64("original", o.OriginalSize).
			Int64("compressed", o.CompressedSize).
			Float64("percent", o.Percent).
			Msg("compressed")
	} else {
		stats.Failed++
		update.FailedDelta = 1
		logging.Get().Warn().
			Err(o.Err).
			Str("path", o.InputPath).
			Str("reason", compressor.Reason(o.Err)).
			Msgf("%s was not compressed", o.FileName)
	}
	s.send(update)
}

func (s *Scheduler) send(u ProgressUpdate) {
	if s.updates != nil {
		s.updates <- u
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
