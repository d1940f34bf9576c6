package compressor

// Job describes one file to compress.
type Job struct {
	// InputPath is the file to compress.
	InputPath string
	// OutputPath is where the compressed copy goes. Ignored when Overwrite
	// is set.
	OutputPath string
	// Quality is the lossy quality level, 1-100.
	Quality int
	// Overwrite replaces InputPath with the compressed result.
	Overwrite bool
}

// Outcome is the result of compressing one file. Outcomes are values handed
// back to the coordinator; workers never touch shared state.
type Outcome struct {
	InputPath      string
	FileName       string
	OriginalSize   int64
	CompressedSize int64
	SavedBytes     int64
	// Percent is SavedBytes/OriginalSize*100 rounded to two decimals.
	Percent float64
	// OutputPath is where the file finally rests: the output copy, the input
	// path under overwrite, or empty when nothing was written.
	OutputPath string
	Succeeded  bool
	// Err explains a failed outcome: a *DecodeError, an *EncodeError,
	// ErrSizeRegression, ErrTimeout or an I/O error.
	Err error
}
