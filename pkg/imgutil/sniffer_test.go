package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/spf13/afero"
)

func encoded(t *testing.T, kind Kind) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 0xff, A: 0xff})

	var buf bytes.Buffer
	var err error
	switch kind {
	case KindJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case KindPNG:
		err = png.Encode(&buf, img)
	case KindGIF:
		err = gif.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", kind, err)
	}
	return buf.Bytes()
}

func TestSniffReader(t *testing.T) {
	for _, kind := range []Kind{KindJPEG, KindPNG, KindGIF} {
		got, err := SniffReader(bytes.NewReader(encoded(t, kind)))
		if err != nil {
			t.Fatalf("sniff %s: %v", kind, err)
		}
		if got != kind {
			t.Errorf("got %s, want %s", got, kind)
		}
	}
}

func TestSniffReader_NotAnImage(t *testing.T) {
	got, err := SniffReader(bytes.NewReader([]byte("just some text, not pixels")))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if got != KindUnknown {
		t.Errorf("got %s, want unknown", got)
	}
}

func TestSniffReader_Empty(t *testing.T) {
	if _, err := SniffReader(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSniffFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/in/a.png", encoded(t, KindPNG), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := SniffFile(fs, "/in/a.png")
	if err != nil {
		t.Fatalf("SniffFile: %v", err)
	}
	if got != KindPNG {
		t.Errorf("got %s, want png", got)
	}
	if _, err := SniffFile(fs, "/in/missing.png"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestKindEncodable(t *testing.T) {
	if !KindJPEG.Encodable() || !KindPNG.Encodable() || !KindGIF.Encodable() {
		t.Error("jpeg, png and gif must be encodable")
	}
	if KindWEBP.Encodable() || KindUnknown.Encodable() {
		t.Error("webp and unknown must not be encodable")
	}
}
