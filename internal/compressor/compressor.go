// Package compressor re-encodes one image at a lossy quality level and
// decides whether the result is worth keeping.
package compressor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"squeeze/internal/display"
	"squeeze/internal/logging"
	"squeeze/internal/store"
	"squeeze/pkg/imgutil"
)

// Compressor compresses single files on a filesystem.
type Compressor struct {
	fs      afero.Fs
	timeout time.Duration
}

// New returns a Compressor. A zero timeout lets a file take as long as it
// needs.
func New(fs afero.Fs, timeout time.Duration) *Compressor {
	return &Compressor{fs: fs, timeout: timeout}
}

// Compress decodes job.InputPath, re-encodes it at job.Quality and keeps the
// result only when it is not larger than the original. Every failure is
// reported in the returned Outcome; Compress never panics on bad input.
func (c *Compressor) Compress(ctx context.Context, job Job) Outcome {
	out := Outcome{
		InputPath: job.InputPath,
		FileName:  path.Base(filepath.ToSlash(job.InputPath)),
	}

	info, err := c.fs.Stat(job.InputPath)
	if err != nil {
		out.Err = &DecodeError{Path: job.InputPath, Err: err}
		return out
	}
	out.OriginalSize = info.Size()
	out.CompressedSize = out.OriginalSize

	data, err := c.encodeWithTimeout(ctx, job)
	if err != nil {
		out.Err = err
		return out
	}

	dest := job.OutputPath
	if job.Overwrite {
		dest = job.InputPath
	}
	if dest == "" {
		out.Err = &EncodeError{Path: job.InputPath, Err: fmt.Errorf("no output path")}
		return out
	}

	compressed, err := c.writeIfSmaller(data, dest, out.OriginalSize, info.Mode().Perm())
	if err != nil {
		out.Err = err
		return out
	}

	out.CompressedSize = compressed
	out.SavedBytes = out.OriginalSize - compressed
	out.Percent = display.Percent(out.SavedBytes, out.OriginalSize)
	out.OutputPath = filepath.ToSlash(dest)
	out.Succeeded = true
	return out
}

// writeIfSmaller writes data to a temp file next to dest, measures it, and
// moves it over dest only when it is no larger than originalSize. The temp
// file is removed on every other path.
func (c *Compressor) writeIfSmaller(data []byte, dest string, originalSize int64, perm os.FileMode) (int64, error) {
	destDir := filepath.Dir(dest)
	if err := c.fs.MkdirAll(destDir, 0o755); err != nil {
		return 0, &EncodeError{Path: dest, Err: err}
	}

	tmp, err := afero.TempFile(c.fs, destDir, ".squeeze-*.tmp")
	if err != nil {
		return 0, &EncodeError{Path: dest, Err: err}
	}
	tmpName := tmp.Name()
	defer c.fs.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, &EncodeError{Path: dest, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, &EncodeError{Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &EncodeError{Path: dest, Err: err}
	}
	_ = c.fs.Chmod(tmpName, perm)

	st, err := c.fs.Stat(tmpName)
	if err != nil {
		return 0, &EncodeError{Path: dest, Err: err}
	}
	if st.Size() > originalSize {
		return 0, ErrSizeRegression
	}

	if err := store.Replace(c.fs, tmpName, dest); err != nil {
		return 0, &EncodeError{Path: dest, Err: err}
	}
	return st.Size(), nil
}

func (c *Compressor) encodeWithTimeout(ctx context.Context, job Job) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", job.InputPath, ErrTimeout)
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := c.encode(job)
		done <- result{data: data, err: err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-ctx.Done():
		// The codec cannot be interrupted; its goroutine finishes on its own
		// and its buffer is dropped. Nothing has been written to disk yet.
		return nil, fmt.Errorf("%s: %w", job.InputPath, ErrTimeout)
	}
}

// encode decodes the input and returns the re-encoded bytes.
func (c *Compressor) encode(job Job) ([]byte, error) {
	f, err := c.fs.Open(job.InputPath)
	if err != nil {
		return nil, &DecodeError{Path: job.InputPath, Err: err}
	}
	defer f.Close()

	kind, err := imgutil.SniffReader(f)
	if err != nil {
		return nil, &DecodeError{Path: job.InputPath, Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Path: job.InputPath, Err: err}
	}

	if kind == imgutil.KindUnknown {
		return nil, &DecodeError{Path: job.InputPath, Err: image.ErrFormat}
	}
	if !kind.Encodable() {
		return nil, &EncodeError{Path: job.InputPath, Err: fmt.Errorf("re-encoding %s is not supported", kind)}
	}

	var buf bytes.Buffer
	switch kind {
	case imgutil.KindJPEG:
		img, err := jpeg.Decode(f)
		if err != nil {
			return nil, &DecodeError{Path: job.InputPath, Err: err}
		}
		orientation, err := readOrientation(f)
		if err != nil {
			logging.Get().Debug().Err(err).Str("path", job.InputPath).Msg("could not read EXIF orientation")
		}
		img = applyOrientation(img, orientation)
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: job.Quality}); err != nil {
			return nil, &EncodeError{Path: job.InputPath, Err: err}
		}
	case imgutil.KindPNG:
		img, err := png.Decode(f)
		if err != nil {
			return nil, &DecodeError{Path: job.InputPath, Err: err}
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, &EncodeError{Path: job.InputPath, Err: err}
		}
	case imgutil.KindGIF:
		anim, err := gif.DecodeAll(f)
		if err != nil {
			return nil, &DecodeError{Path: job.InputPath, Err: err}
		}
		if err := gif.EncodeAll(&buf, anim); err != nil {
			return nil, &EncodeError{Path: job.InputPath, Err: err}
		}
	}
	return buf.Bytes(), nil
}

// ResolveOutput mirrors inputPath's location below inputRoot into outputDir.
func ResolveOutput(inputRoot, inputPath, outputDir string) (string, error) {
	rel, err := filepath.Rel(filepath.FromSlash(inputRoot), filepath.FromSlash(inputPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(filepath.FromSlash(inputPath))
	}

	dest := filepath.Join(filepath.FromSlash(outputDir), rel)
	if filepath.Clean(dest) == filepath.Clean(filepath.FromSlash(inputPath)) {
		return "", fmt.Errorf("output path resolves to input path %s; use overwrite or a different output directory", inputPath)
	}
	return filepath.ToSlash(dest), nil
}
