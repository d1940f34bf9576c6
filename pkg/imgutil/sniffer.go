package imgutil

import (
	"errors"
	"io"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"
)

// Kind identifies an image type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindTIFF
	KindWEBP
	KindBMP
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindGIF:
		return "gif"
	case KindTIFF:
		return "tiff"
	case KindWEBP:
		return "webp"
	case KindBMP:
		return "bmp"
	default:
		return "unknown"
	}
}

// Encodable reports whether images of this kind can be re-encoded in the
// same format.
func (k Kind) Encodable() bool {
	return k == KindJPEG || k == KindPNG || k == KindGIF
}

// HeaderSize is how many leading bytes filetype needs to match every
// supported signature.
const HeaderSize = 261

var kinds = map[types.Type]Kind{
	matchers.TypeJpeg: KindJPEG,
	matchers.TypePng:  KindPNG,
	matchers.TypeGif:  KindGIF,
	matchers.TypeTiff: KindTIFF,
	matchers.TypeWebp: KindWEBP,
	matchers.TypeBmp:  KindBMP,
}

// DetectHeader inspects the leading bytes of a file for known image signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) == 0 {
		return KindUnknown, errors.New("empty header")
	}

	t, err := filetype.Image(header)
	if err != nil {
		if errors.Is(err, filetype.ErrEmptyBuffer) {
			return KindUnknown, err
		}
		return KindUnknown, nil
	}
	if k, ok := kinds[t]; ok {
		return k, nil
	}
	return KindUnknown, nil
}

// SniffFile reads the head of path to determine its type.
func SniffFile(fs afero.Fs, path string) (Kind, error) {
	f, err := fs.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads up to HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return KindUnknown, err
	}

	return DetectHeader(header[:n])
}
