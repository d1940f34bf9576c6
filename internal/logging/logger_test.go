package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGet_BeforeInit(t *testing.T) {
	logger = nil
	if Get() == nil {
		t.Fatal("expected a discard logger before Init")
	}
}

func TestInit_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "run.log")

	closer, err := Init("debug", file, &console)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	Get().Info().Str("path", "a.jpg").Msg("batch done")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(console.String(), "batch done") {
		t.Errorf("console output missing message: %q", console.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "path=a.jpg") {
		t.Errorf("log file missing field: %q", string(data))
	}
}

func TestInit_LevelFilters(t *testing.T) {
	var console bytes.Buffer
	if _, err := Init("warn", "", &console); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Get().Info().Msg("hidden")
	Get().Warn().Msg("shown")
	out := console.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
