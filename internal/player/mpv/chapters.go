package mpv

import (
	"context"
	"errors"
	"fmt"

	"skipintro/internal/chapters"
)

// ErrOtherFile is returned when chapters are requested for a file mpv is not
// playing.
var ErrOtherFile = errors.New("file is not the one mpv is playing")

// ChapterBackend reads chapters of the playing file from mpv.
type ChapterBackend struct {
	client *Client
}

var _ chapters.Backend = (*ChapterBackend)(nil)

// NewChapterBackend wraps client.
func NewChapterBackend(client *Client) *ChapterBackend {
	return &ChapterBackend{client: client}
}

func (b *ChapterBackend) Name() string { return "player" }

func (b *ChapterBackend) Count(ctx context.Context, file string) (int, error) {
	if err := b.checkFile(ctx, file); err != nil {
		return 0, err
	}
	var n int
	if err := b.client.GetProperty(ctx, "chapters", &n); err != nil {
		if errors.Is(err, ErrPropertyUnavailable) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (b *ChapterBackend) Entry(ctx context.Context, file string, index int) (chapters.Entry, error) {
	if err := b.checkFile(ctx, file); err != nil {
		return chapters.Entry{}, err
	}
	var start float64
	if err := b.client.GetProperty(ctx, fmt.Sprintf("chapter-list/%d/time", index-1), &start); err != nil {
		if errors.Is(err, ErrPropertyUnavailable) {
			return chapters.Entry{}, fmt.Errorf("%w: index %d", chapters.ErrNoTime, index)
		}
		return chapters.Entry{}, err
	}
	var title string
	if err := b.client.GetProperty(ctx, fmt.Sprintf("chapter-list/%d/title", index-1), &title); err != nil && !errors.Is(err, ErrPropertyUnavailable) {
		return chapters.Entry{}, err
	}
	return chapters.Entry{Name: title, Start: start}, nil
}

func (b *ChapterBackend) checkFile(ctx context.Context, file string) error {
	playing, err := b.client.PlayingFile(ctx)
	if err != nil {
		return err
	}
	if playing != file {
		return fmt.Errorf("%w: %s", ErrOtherFile, file)
	}
	return nil
}
