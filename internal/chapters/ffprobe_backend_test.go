package chapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"skipintro/internal/media/ffprobe"
)

func TestFFprobeBackendProbesOncePerFile(t *testing.T) {
	probes := 0
	backend := NewFFprobeBackend("ffprobe")
	backend.inspect = func(_ context.Context, _, path string) (ffprobe.Result, error) {
		probes++
		return ffprobe.Result{Chapters: []ffprobe.Chapter{
			{StartTime: "0.000000", Tags: map[string]string{"title": "Prologue"}},
			{StartTime: "62.5", Tags: map[string]string{"title": "Intro"}},
			{StartTime: "", Tags: map[string]string{"title": "Broken"}},
		}}, nil
	}

	src := NewSource([]Backend{backend}, Options{Retries: 1}, nil)
	got, err := src.Get(context.Background(), "/tv/show/ep.mkv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if probes != 1 {
		t.Fatalf("expected one probe, got %d", probes)
	}
	if len(got) != 2 || got[1].Name != "Intro" || got[1].Start != 62.5 {
		t.Fatalf("unexpected chapters: %+v", got)
	}
	if pos, ok := FindIntro(got); !ok || pos != 1 {
		t.Fatalf("expected intro at position 1, got %d,%v", pos, ok)
	}
}

func TestFFprobeBackendErrorFallsThrough(t *testing.T) {
	backend := NewFFprobeBackend("ffprobe")
	backend.inspect = func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("exit status 1")
	}
	src := NewSource([]Backend{backend}, Options{Retries: 2, Backoff: time.Microsecond}, nil)
	got, err := src.Get(context.Background(), "/tv/show/ep.mkv")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result without error, got %v, %v", got, err)
	}
}
