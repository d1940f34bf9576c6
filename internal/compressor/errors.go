package compressor

import (
	"errors"
	"fmt"
)

// ErrSizeRegression marks an outcome whose compressed output was larger than
// the original. The output is discarded and the original left untouched.
var ErrSizeRegression = errors.New("compressed size is greater than the original size")

// ErrTimeout marks a file whose decode and encode did not finish in time.
var ErrTimeout = errors.New("compression timed out")

// DecodeError reports an input that is unreadable, corrupt or of an
// unsupported format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a failure to produce the compressed output, including
// an unwritable destination or a full disk.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Reason returns a short label for a failed outcome's error, used in logs
// and summaries.
func Reason(err error) string {
	var decodeErr *DecodeError
	var encodeErr *EncodeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSizeRegression):
		return "size regression"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &decodeErr):
		return "decode error"
	case errors.As(err, &encodeErr):
		return "encode error"
	default:
		return "io error"
	}
}
