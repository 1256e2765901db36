package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChapterHelpers(t *testing.T) {
	tests := []struct {
		name      string
		chapter   Chapter
		wantStart float64
		wantOK    bool
		wantTitle string
	}{
		{name: "valid", chapter: Chapter{StartTime: "90.500000", Tags: map[string]string{"title": " Intro "}}, wantStart: 90.5, wantOK: true, wantTitle: "Intro"},
		{name: "upper case tag", chapter: Chapter{StartTime: "0.000000", Tags: map[string]string{"TITLE": "Opening"}}, wantStart: 0, wantOK: true, wantTitle: "Opening"},
		{name: "missing start", chapter: Chapter{}, wantOK: false},
		{name: "garbage start", chapter: Chapter{StartTime: "n/a"}, wantOK: false},
		{name: "negative start", chapter: Chapter{StartTime: "-1"}, wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, ok := tc.chapter.StartSeconds()
			if ok != tc.wantOK || (ok && start != tc.wantStart) {
				t.Fatalf("StartSeconds() = %v,%v want %v,%v", start, ok, tc.wantStart, tc.wantOK)
			}
			if got := tc.chapter.Title(); got != tc.wantTitle {
				t.Fatalf("Title() = %q want %q", got, tc.wantTitle)
			}
		})
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Tags: map[string]string{"SHOW": "Severance"}}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.Tag("show") != "Severance" {
		t.Fatalf("expected case-insensitive tag lookup, got %q", result.Tag("show"))
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires unix")
	}
	dir := t.TempDir()
	payload := `{"chapters":[{"id":0,"start_time":"0.000000","end_time":"90.000000","tags":{"title":"Cold Open"}},{"id":1,"start_time":"90.000000","end_time":"150.000000","tags":{"title":"Intro"}}],"format":{"filename":"ep.mkv","duration":"1500.0"}}`
	script := "#!/bin/sh\ncat <<'JSON'\n" + payload + "\nJSON\n"
	bin := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), bin, filepath.Join(dir, "ep.mkv"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(result.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(result.Chapters))
	}
	if result.Chapters[1].Title() != "Intro" {
		t.Fatalf("unexpected chapter title %q", result.Chapters[1].Title())
	}
	if result.DurationSeconds() != 1500 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
