package display

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{102400, "100.0 KB"},
		{1048576, "1.0 MB"},
		{1288490189, "1.2 GB"},
		{-2048, "-2.0 KB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestFormatSize_Rounding(t *testing.T) {
	// 1234567 / 1024 = 1205.631...
	if got := FormatSize(1234567); got != "1.18 MB" {
		t.Errorf("FormatSize(1234567) = %q, want %q", got, "1.18 MB")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		saved, original int64
		want            float64
	}{
		{0, 100, 0},
		{40960, 51200, 80},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.saved, tt.original); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.saved, tt.original, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "0.0%"},
		{80, "80.0%"},
		{12.35, "12.35%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.p); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}
