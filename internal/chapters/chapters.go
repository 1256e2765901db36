package chapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"skipintro/internal/logging"
)

// Chapter is a single chapter marker. Index is 1-based and matches time order.
type Chapter struct {
	Index int
	Name  string
	Start float64
}

// Entry is what a backend reports for one chapter.
type Entry struct {
	Name  string
	Start float64
}

// ErrNoTime reports that a backend cannot time the requested chapter.
var ErrNoTime = errors.New("chapter has no start time")

// Backend exposes per-chapter lookups for a media file.
type Backend interface {
	Name() string
	// Count returns the number of chapters in file.
	Count(ctx context.Context, file string) (int, error)
	// Entry returns the chapter at the 1-based index.
	Entry(ctx context.Context, file string, index int) (Entry, error)
}

// Options configure retry behaviour for the primary backend.
type Options struct {
	Retries int
	Backoff time.Duration
}

// Source resolves normalized chapter lists and caches the last non-empty one.
type Source struct {
	backends []Backend
	opts     Options
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error

	mu        sync.Mutex
	cacheFile string
	cache     []Chapter
}

// NewSource builds a Source over backends in priority order.
func NewSource(backends []Backend, opts Options, logger *slog.Logger) *Source {
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	return &Source{
		backends: slices.DeleteFunc(slices.Clone(backends), func(b Backend) bool { return b == nil }),
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "chapters"),
		sleep:    sleepContext,
	}
}

// Get returns the chapters of file in time order. A file without chapters
// yields an empty slice and a nil error; only context cancellation is
// reported as an error.
func (s *Source) Get(ctx context.Context, file string) ([]Chapter, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, nil
	}
	if cached := s.cached(file); cached != nil {
		return cached, nil
	}

	count, backend := s.count(ctx, file)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count == 0 {
		s.logger.DebugContext(ctx, "no chapters reported", logging.String(logging.FieldFile, file))
		return []Chapter{}, nil
	}

	result := make([]Chapter, 0, count)
	for index := 1; index <= count; index++ {
		entry, ok := s.entry(ctx, file, index)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ok {
			s.logger.DebugContext(ctx, "chapter dropped; no backend could time it",
				logging.String(logging.FieldFile, file),
				logging.Int("index", index),
			)
			continue
		}
		result = append(result, Chapter{Index: index, Name: entry.Name, Start: entry.Start})
	}
	result = Normalize(result)

	s.logger.DebugContext(ctx, "chapters loaded",
		logging.String(logging.FieldFile, file),
		logging.String("count_backend", backend),
		logging.Int("reported", count),
		logging.Int("timed", len(result)),
	)
	if len(result) > 0 {
		s.store(file, result)
	}
	return slices.Clone(result), nil
}

func (s *Source) cached(file string) []Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheFile != file || len(s.cache) == 0 {
		return nil
	}
	return slices.Clone(s.cache)
}

func (s *Source) store(file string, chapters []Chapter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheFile = file
	s.cache = slices.Clone(chapters)
}

func (s *Source) count(ctx context.Context, file string) (int, string) {
	for i, backend := range s.backends {
		attempts := 1
		if i == 0 {
			attempts = s.opts.Retries
		}
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
					return 0, ""
				}
			}
			n, err := backend.Count(ctx, file)
			if err == nil && n > 0 {
				return n, backend.Name()
			}
			if err != nil {
				s.logger.DebugContext(ctx, "chapter count failed",
					logging.String("backend", backend.Name()),
					logging.Int("attempt", attempt+1),
					logging.Error(err),
				)
			}
		}
	}
	return 0, ""
}

func (s *Source) entry(ctx context.Context, file string, index int) (Entry, bool) {
	for i, backend := range s.backends {
		attempts := 1
		if i == 0 {
			attempts = s.opts.Retries
		}
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
					return Entry{}, false
				}
			}
			entry, err := backend.Entry(ctx, file, index)
			if err == nil && entry.Start >= 0 {
				return entry, true
			}
			if err == nil {
				err = fmt.Errorf("%w: negative start %v", ErrNoTime, entry.Start)
			}
			s.logger.DebugContext(ctx, "chapter lookup failed",
				logging.String("backend", backend.Name()),
				logging.Int("index", index),
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
		}
	}
	return Entry{}, false
}

func (s *Source) backoff(attempt int) time.Duration {
	return s.opts.Backoff << (attempt - 1)
}

// Normalize orders chapters by start time, renumbers them from 1, and names
// blank chapters "Chapter N".
func Normalize(in []Chapter) []Chapter {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b Chapter) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return a.Index - b.Index
		}
	})
	for i := range out {
		out[i].Index = i + 1
		out[i].Name = strings.TrimSpace(out[i].Name)
		if out[i].Name == "" {
			out[i].Name = DefaultName(i + 1)
		}
	}
	return out
}

// DefaultName is the name given to an untitled chapter.
func DefaultName(index int) string {
	return fmt.Sprintf("Chapter %d", index)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
