package chapters

import (
	"context"
	"fmt"
	"sync"

	"skipintro/internal/media/ffprobe"
)

type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FFprobeBackend reads chapters from the container with ffprobe. One probe
// serves every index of the same file.
type FFprobeBackend struct {
	binary  string
	inspect inspectFunc

	mu     sync.Mutex
	file   string
	result []ffprobe.Chapter
}

// NewFFprobeBackend returns a backend that runs binary (default "ffprobe").
func NewFFprobeBackend(binary string) *FFprobeBackend {
	return &FFprobeBackend{binary: binary, inspect: ffprobe.Inspect}
}

func (b *FFprobeBackend) Name() string { return "ffprobe" }

func (b *FFprobeBackend) Count(ctx context.Context, file string) (int, error) {
	list, err := b.load(ctx, file)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (b *FFprobeBackend) Entry(ctx context.Context, file string, index int) (Entry, error) {
	list, err := b.load(ctx, file)
	if err != nil {
		return Entry{}, err
	}
	if index < 1 || index > len(list) {
		return Entry{}, fmt.Errorf("%w: index %d of %d", ErrNoTime, index, len(list))
	}
	chapter := list[index-1]
	start, ok := chapter.StartSeconds()
	if !ok {
		return Entry{}, fmt.Errorf("%w: index %d start %q", ErrNoTime, index, chapter.StartTime)
	}
	return Entry{Name: chapter.Title(), Start: start}, nil
}

func (b *FFprobeBackend) load(ctx context.Context, file string) ([]ffprobe.Chapter, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.file == file && b.result != nil {
		return b.result, nil
	}
	res, err := b.inspect(ctx, b.binary, file)
	if err != nil {
		return nil, err
	}
	b.file = file
	b.result = res.Chapters
	if b.result == nil {
		b.result = []ffprobe.Chapter{}
	}
	return b.result, nil
}
