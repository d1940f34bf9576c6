package batch

import (
	"context"

	"squeeze/internal/compressor"
)

// Batch is a contiguous slice of candidates. Index is fixed when the
// candidate list is partitioned.
type Batch struct {
	Index int
	Paths []string
}

// Options configures one scheduler run over one input directory.
type Options struct {
	InputRoot   string
	OutputDir   string
	Quality     int
	Overwrite   bool
	BatchSize   int
	Concurrency int
}

// Compressor compresses a single file. *compressor.Compressor satisfies it.
type Compressor interface {
	Compress(ctx context.Context, job compressor.Job) compressor.Outcome
}

// Stats counts what a scheduler run did.
type Stats struct {
	Batches    int
	Processed  int
	Compressed int
	Failed     int
	BytesSaved int64
}

// ProgressUpdate carries counter deltas to the progress UI.
type ProgressUpdate struct {
	TotalDelta      int
	ProcessedDelta  int
	CompressedDelta int
	FailedDelta     int
	BytesSavedDelta int64
	// Batch and Batches are set when a batch starts (1-based).
	Batch   int
	Batches int
}
