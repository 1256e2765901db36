package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"skipintro/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipintro-run.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}

	lines, _, err = logs.Last(path, 10, func(l string) bool { return l != "b" })
	if err != nil {
		t.Fatalf("Last filtered: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "c" {
		t.Fatalf("unexpected filtered lines: %#v", lines)
	}

	lines, offset, err = logs.Last(path, 0, nil)
	if err != nil || lines != nil || offset != 6 {
		t.Fatalf("limit 0: %v %d %v", lines, offset, err)
	}
}

func TestLatestPicksNewest(t *testing.T) {
	dir := t.TempDir()
	if _, err := logs.Latest(dir, "skipintro-*.log"); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs, got %v", err)
	}

	older := filepath.Join(dir, "skipintro-20260101T000000.log")
	newer := filepath.Join(dir, "skipintro-20260102T000000.log")
	writeLog(t, older, "old\n")
	writeLog(t, newer, "new\n")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	writeLog(t, filepath.Join(dir, "other.log"), "x\n")

	got, err := logs.Latest(dir, "skipintro-*.log")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got != newer {
		t.Fatalf("Latest = %s, want %s", got, newer)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skipintro-run.log")
	writeLog(t, path, "start\n")
	_, offset, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\npart"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}
