// Package runner sequences one compression run over every configured input
// directory: load the ledger, discover and filter candidates, run the
// batches, then persist the report, the ledger and the run log.
package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"squeeze/internal/batch"
	"squeeze/internal/compressor"
	"squeeze/internal/config"
	"squeeze/internal/discover"
	"squeeze/internal/display"
	"squeeze/internal/ledger"
	"squeeze/internal/logging"
	"squeeze/internal/report"
)

// DirResult describes the work done for one input directory.
type DirResult struct {
	Input          string
	Output         string
	Discovered     int
	Skipped        int
	Candidates     int
	Stats          batch.Stats
	OriginalSize   int64
	CompressedSize int64
}

// Result describes a whole run.
type Result struct {
	RunID      string
	Started    time.Time
	Dirs       []DirResult
	ReportPath string
	Discovered int
	Skipped    int
	Compressed int
	Failed     int
	SavedBytes int64
}

// NothingToDo reports whether no directory had a file to compress.
func (r *Result) NothingToDo() bool {
	return r.Compressed+r.Failed == 0
}

// Runner executes runs. The ledger and report of a run belong to the Run
// call; concurrent runs must not share a ledger file.
type Runner struct {
	fs      afero.Fs
	cfg     *config.Config
	updates chan<- batch.ProgressUpdate
	now     func() time.Time
	newID   func() string
}

// New returns a Runner. updates may be nil.
func New(fs afero.Fs, cfg *config.Config, updates chan<- batch.ProgressUpdate) *Runner {
	return &Runner{
		fs:      fs,
		cfg:     cfg,
		updates: updates,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run performs one run. Per-file failures are part of the result; the
// returned error is reserved for fatal problems such as an unreadable ledger
// or an unwritable report.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: r.newID(), Started: r.now()}
	log := logging.Get().With().Str("run", res.RunID).Logger()

	l, err := ledger.Load(ledger.OpenStore(r.fs, r.cfg.Ledger))
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	log.Debug().Int("entries", l.Len()).Str("ledger", r.cfg.Ledger).Msg("ledger loaded")

	rep := report.New()
	sched := batch.New(compressor.New(r.fs, r.cfg.Timeout), r.updates)

	var summaries []report.RunSummary
	for _, input := range r.cfg.Inputs {
		dr, err := r.runDir(ctx, input, l, rep, sched)
		if err != nil {
			// Files from earlier inputs may already be rewritten in place.
			if l.Dirty() {
				if saveErr := l.Save(); saveErr != nil {
					log.Error().Err(saveErr).Msg("could not save ledger after failed input")
				}
			}
			return res, err
		}
		res.Dirs = append(res.Dirs, dr)
		res.Discovered += dr.Discovered
		res.Skipped += dr.Skipped
		res.Compressed += dr.Stats.Compressed
		res.Failed += dr.Stats.Failed
		res.SavedBytes += dr.Stats.BytesSaved

		if dr.Candidates > 0 {
			summaries = append(summaries, report.RunSummary{
				RunID:          res.RunID,
				Time:           r.now(),
				InputPath:      dr.Input,
				OutputPath:     dr.Output,
				Overwrite:      r.cfg.Overwrite,
				OriginalSize:   dr.OriginalSize,
				CompressedSize: dr.CompressedSize,
				Compressed:     dr.Stats.Compressed,
				Failed:         dr.Stats.Failed,
				Quality:        r.cfg.Quality,
			})
		}
	}

	if rep.Len() == 0 {
		log.Info().Msg("Operation done: no files to compress")
		return res, nil
	}

	reportPath, err := rep.Save(r.fs, r.cfg.ReportDir, res.Started)
	if err != nil {
		return res, fmt.Errorf("save report: %w", err)
	}
	res.ReportPath = reportPath

	if err := l.Save(); err != nil {
		return res, fmt.Errorf("save ledger: %w", err)
	}

	for _, s := range summaries {
		if err := report.AppendSummary(r.fs, r.cfg.RunLog, s); err != nil {
			return res, fmt.Errorf("append run log: %w", err)
		}
	}

	log.Info().
		Int("compressed", res.Compressed).
		Int("not_compressed", res.Failed).
		Str("saved", display.FormatSize(res.SavedBytes)).
		Str("report", res.ReportPath).
		Msg("Compression finished")
	if res.Compressed == 0 && res.Skipped == 0 {
		log.Warn().Int("failed", res.Failed).Msg("no file could be compressed")
	}
	return res, nil
}

func (r *Runner) runDir(ctx context.Context, input string, l *ledger.Ledger, rep *report.Report, sched *batch.Scheduler) (DirResult, error) {
	input = ledger.NormalizePath(input)
	dr := DirResult{Input: input, Output: r.outputFor(input)}
	log := logging.Get().With().Str("input", input).Logger()

	opts := discover.Options{Recursive: r.cfg.Recursive, ImagesOnly: r.cfg.ImagesOnly}
	if !r.cfg.Overwrite {
		opts.Exclude = []string{dr.Output}
	}
	files, err := discover.Discover(r.fs, input, opts)
	if err != nil {
		return dr, &config.Error{Field: "inputs", Reason: err.Error()}
	}
	candidates := discover.Filter(files, l, r.cfg.RetryFailed)

	dr.Discovered = len(files)
	dr.Candidates = len(candidates)
	dr.Skipped = dr.Discovered - dr.Candidates
	log.Info().
		Int("files", dr.Discovered).
		Int("already_compressed", dr.Skipped).
		Int("to_compress", dr.Candidates).
		Msg("scanned input folder")

	if dr.Candidates == 0 {
		log.Info().Msg("No files to compress")
		return dr, nil
	}

	dr.OriginalSize, err = report.FolderSize(r.fs, input)
	if err != nil {
		log.Warn().Err(err).Msg("could not measure input folder")
	}

	if !r.cfg.Overwrite {
		if err := r.fs.MkdirAll(dr.Output, 0o755); err != nil {
			return dr, fmt.Errorf("create output folder: %w", err)
		}
	}

	dr.Stats, err = sched.Run(ctx, candidates, batch.Options{
		InputRoot:   input,
		OutputDir:   dr.Output,
		Quality:     r.cfg.Quality,
		Overwrite:   r.cfg.Overwrite,
		BatchSize:   r.cfg.BatchSize,
		Concurrency: r.cfg.Concurrency,
	}, l, rep)
	if err != nil {
		return dr, err
	}

	after := dr.Output
	if r.cfg.Overwrite {
		after = input
	}
	dr.CompressedSize, err = report.FolderSize(r.fs, after)
	if err != nil {
		log.Warn().Err(err).Msg("could not measure output folder")
	}
	return dr, nil
}

// outputFor returns the output directory for input. With several inputs
// each gets its own subdirectory so that equal relative paths do not
// collide.
func (r *Runner) outputFor(input string) string {
	if r.cfg.Overwrite {
		return input
	}
	if len(r.cfg.Inputs) <= 1 {
		return ledger.NormalizePath(r.cfg.Output)
	}
	return ledger.NormalizePath(filepath.Join(r.cfg.Output, filepath.Base(filepath.FromSlash(input))))
}
