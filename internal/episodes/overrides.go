package episodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const overrideColumns = "show_id, season, episode, " + timesColumns + ", source, updated_at"

// GetEpisodeOverride returns the saved data for one episode, or nil when absent.
func (s *Store) GetEpisodeOverride(ctx context.Context, showID int64, season, episode int) (*EpisodeOverride, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+overrideColumns+` FROM episodes WHERE show_id = ? AND season = ? AND episode = ?`,
		showID, season, episode)
	override, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get episode override", err)
	}
	return override, nil
}

// ListEpisodeOverrides returns every saved episode of showID ordered by season and episode.
func (s *Store) ListEpisodeOverrides(ctx context.Context, showID int64) ([]EpisodeOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+overrideColumns+` FROM episodes WHERE show_id = ? ORDER BY season, episode`, showID)
	if err != nil {
		return nil, unavailable("list episode overrides", err)
	}
	defer rows.Close()

	var out []EpisodeOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, unavailable("scan episode override", err)
		}
		out = append(out, *override)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list episode overrides", err)
	}
	return out, nil
}

// SaveEpisodeTimes upserts the episode row. When the show has UseDefaults
// set, the same fields replace the show's times in the same transaction.
func (s *Store) SaveEpisodeTimes(ctx context.Context, showID int64, season, episode int, times Times, source TimeSource) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin episode tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	args := []any{showID, season, episode}
	args = append(args, timesArgs(times)...)
	args = append(args, string(source), ts, ts)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO episodes (show_id, season, episode, `+timesColumns+`, source, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(show_id, season, episode) DO UPDATE SET
             intro_start_chapter = excluded.intro_start_chapter,
             outro_start_chapter = excluded.outro_start_chapter,
             intro_start_time = excluded.intro_start_time,
             intro_duration = excluded.intro_duration,
             outro_start_time = excluded.outro_start_time,
             source = excluded.source,
             updated_at = excluded.updated_at`,
		args...,
	); err != nil {
		return unavailable("upsert episode", err)
	}

	var useDefaults sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT use_defaults FROM shows_config WHERE show_id = ?`, showID).Scan(&useDefaults)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return unavailable("read show defaults flag", err)
	}
	if useDefaults.Int64 != 0 {
		propagate := append(timesArgs(times), ts, showID)
		if _, err := tx.ExecContext(ctx,
			`UPDATE shows_config SET
                 intro_start_chapter = ?, outro_start_chapter = ?,
                 intro_start_time = ?, intro_duration = ?, outro_start_time = ?,
                 updated_at = ?
             WHERE show_id = ?`,
			propagate...,
		); err != nil {
			return unavailable("propagate show defaults", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit episode", err)
	}
	return nil
}

// DeleteEpisodeOverride removes saved data for one episode. It reports
// whether a row existed.
func (s *Store) DeleteEpisodeOverride(ctx context.Context, showID int64, season, episode int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM episodes WHERE show_id = ? AND season = ? AND episode = ?`, showID, season, episode)
	if err != nil {
		return false, unavailable("delete episode override", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("delete episode override", err)
	}
	return n > 0, nil
}

func scanOverride(scanner interface{ Scan(dest ...any) error }) (*EpisodeOverride, error) {
	var (
		o       EpisodeOverride
		showID  sql.NullInt64
		season  sql.NullInt64
		episode sql.NullInt64
		times   timesScan
		source  sql.NullString
		updated sql.NullString
	)
	dest := append([]any{&showID, &season, &episode}, times.dest()...)
	dest = append(dest, &source, &updated)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	o.ShowID = showID.Int64
	o.Season = int(season.Int64)
	o.Episode = int(episode.Int64)
	o.Times = times.times()
	o.Source = TimeSource(source.String)
	o.UpdatedAt = parseTimestamp(updated)
	return &o, nil
}
