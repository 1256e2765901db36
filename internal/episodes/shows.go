package episodes

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// GetOrCreateShow returns the id of the show titled title, creating the show
// and its neutral config when absent. Titles match exactly after trimming.
func (s *Store) GetOrCreateShow(ctx context.Context, title string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ErrInvalidTitle
	}
	v, err, _ := s.creating.Do(title, func() (any, error) {
		return s.getOrCreateShow(ctx, title)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (s *Store) getOrCreateShow(ctx context.Context, title string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("begin show tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO shows (title, created_at) VALUES (?, ?) ON CONFLICT(title) DO NOTHING`,
		title, ts,
	); err != nil {
		return 0, unavailable("insert show", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM shows WHERE title = ?`, title).Scan(&id); err != nil {
		return 0, unavailable("select show", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO shows_config (show_id, use_chapters, use_defaults, created_at, updated_at)
         VALUES (?, 0, 0, ?, ?) ON CONFLICT(show_id) DO NOTHING`,
		id, ts, ts,
	); err != nil {
		return 0, unavailable("insert show config", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, unavailable("commit show", err)
	}
	return id, nil
}

// FindShow returns the show with the exact title, or nil when unknown.
func (s *Store) FindShow(ctx context.Context, title string) (*Show, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM shows WHERE title = ?`, strings.TrimSpace(title))
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("find show", err)
	}
	return show, nil
}

// ListShows returns every known show ordered by title.
func (s *Store) ListShows(ctx context.Context) ([]Show, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at FROM shows ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, unavailable("list shows", err)
	}
	defer rows.Close()

	var shows []Show
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, unavailable("scan show", err)
		}
		shows = append(shows, *show)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list shows", err)
	}
	return shows, nil
}

// Titles returns every known show title, used to canonicalize parsed names.
func (s *Store) Titles(ctx context.Context) ([]string, error) {
	shows, err := s.ListShows(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(shows))
	for _, show := range shows {
		titles = append(titles, show.Title)
	}
	return titles, nil
}

func scanShow(scanner interface{ Scan(dest ...any) error }) (*Show, error) {
	var (
		show    Show
		created sql.NullString
	)
	if err := scanner.Scan(&show.ID, &show.Title, &created); err != nil {
		return nil, err
	}
	show.CreatedAt = parseTimestamp(created)
	return &show, nil
}

// GetShowConfig returns the config for showID, or nil when absent.
func (s *Store) GetShowConfig(ctx context.Context, showID int64) (*ShowConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT show_id, use_chapters, use_defaults, `+timesColumns+`, updated_at
         FROM shows_config WHERE show_id = ?`, showID)

	var (
		cfg         ShowConfig
		useChapters sql.NullInt64
		useDefaults sql.NullInt64
		times       timesScan
		updated     sql.NullString
	)
	dest := append([]any{&cfg.ShowID, &useChapters, &useDefaults}, times.dest()...)
	dest = append(dest, &updated)
	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get show config", err)
	}
	cfg.UseChapters = useChapters.Int64 != 0
	cfg.UseDefaults = useDefaults.Int64 != 0
	cfg.Times = times.times()
	cfg.UpdatedAt = parseTimestamp(updated)
	return &cfg, nil
}

// SaveShowConfig replaces the whole config row for showID.
func (s *Store) SaveShowConfig(ctx context.Context, showID int64, cfg ShowConfig) error {
	ts := now()
	args := []any{showID, boolInt(cfg.UseChapters), boolInt(cfg.UseDefaults)}
	args = append(args, timesArgs(cfg.Times)...)
	args = append(args, ts, ts)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shows_config (show_id, use_chapters, use_defaults, `+timesColumns+`, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(show_id) DO UPDATE SET
             use_chapters = excluded.use_chapters,
             use_defaults = excluded.use_defaults,
             intro_start_chapter = excluded.intro_start_chapter,
             outro_start_chapter = excluded.outro_start_chapter,
             intro_start_time = excluded.intro_start_time,
             intro_duration = excluded.intro_duration,
             outro_start_time = excluded.outro_start_time,
             updated_at = excluded.updated_at`,
		args...,
	)
	if err != nil {
		return unavailable("save show config", err)
	}
	return nil
}
