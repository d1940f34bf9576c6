package compressor

import (
	"errors"
	"image"
	"io"

	exif "github.com/dsoprea/go-exif/v3"
)

const orientationTagID = 0x0112

// readOrientation returns the EXIF Orientation of the image in rs, or 1
// (upright) when the file carries none. The encoder writes no EXIF, so the
// rotation has to be baked into the pixels before re-encoding.
func readOrientation(rs io.ReadSeeker) (int, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 1, err
	}

	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if errors.Is(err, exif.ErrNoExif) {
		return 1, nil
	}
	if err != nil {
		return 1, err
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 1, err
	}

	for _, tag := range tags {
		if tag.TagId != orientationTagID {
			continue
		}
		switch v := tag.Value.(type) {
		case []uint16:
			if len(v) > 0 && v[0] >= 1 && v[0] <= 8 {
				return int(v[0]), nil
			}
		case []uint32:
			if len(v) > 0 && v[0] >= 1 && v[0] <= 8 {
				return int(v[0]), nil
			}
		}
	}
	return 1, nil
}

// applyOrientation returns img transformed so that it displays upright
// without an Orientation tag.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // transpose
				dx, dy = y, x
			case 6: // rotate 90 clockwise
				dx, dy = h-1-y, x
			case 7: // transverse
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 90 counter-clockwise
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
