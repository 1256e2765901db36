package logs

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// ErrNoLogs reports a log directory without run logs.
var ErrNoLogs = errors.New("no run logs found")

const maxLineBytes = 1024 * 1024

// Latest returns the most recently modified file in dir matching pattern.
func Latest(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob run logs: %w", err)
	}
	type candidate struct {
		path string
		mod  time.Time
	}
	var files []candidate
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate{path: path, mod: info.ModTime()})
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	newest := slices.MaxFunc(files, func(a, b candidate) int {
		if c := a.mod.Compare(b.mod); c != 0 {
			return c
		}
		// run log names sort by start time
		return cmp.Compare(a.path, b.path)
	})
	return newest.path, nil
}

// Last returns up to limit trailing lines of path that satisfy keep, and the
// offset of the end of the file. A nil keep accepts every line.
func Last(path string, limit int, keep func(string) bool) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, offset, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	ring := make([]string, limit)
	count, next := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if keep != nil && !keep(line) {
			continue
		}
		ring[next] = line
		next = (next + 1) % limit
		count = min(count+1, limit)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	if count < limit {
		copy(lines, ring[:count])
	} else {
		for i := range count {
			lines[i] = ring[(next+i)%limit]
		}
	}
	return lines, offset, nil
}

// Follow polls path from offset and calls onLine for each new complete line
// until ctx is cancelled. A file that shrinks is read again from the start.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, onLine func(string)) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		info, err := os.Stat(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat log file: %w", err)
		}
		if err == nil {
			if info.Size() < offset {
				offset = 0
			}
			if info.Size() > offset {
				if offset, err = readForward(path, offset, onLine); err != nil {
					return err
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readForward emits complete lines after offset and returns the offset just
// past the last one. A trailing partial line is left for the next read.
func readForward(path string, offset int64, onLine func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return offset, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		onLine(line[:len(line)-1])
	}
}
