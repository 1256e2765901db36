package episodes

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

type column struct {
	name string
	// decl is the full definition used by CREATE TABLE.
	decl string
	// add is the definition used by ALTER TABLE ADD COLUMN, which cannot
	// carry key constraints.
	add string
}

type tableSpec struct {
	name        string
	columns     []column
	constraints []string
	// retired columns force a copy-and-rename rebuild when present.
	retired []string
}

var timeColumns = []column{
	{name: "intro_start_chapter", decl: "INTEGER", add: "INTEGER"},
	{name: "outro_start_chapter", decl: "INTEGER", add: "INTEGER"},
	{name: "intro_start_time", decl: "REAL", add: "REAL"},
	{name: "intro_duration", decl: "REAL", add: "REAL"},
	{name: "outro_start_time", decl: "REAL", add: "REAL"},
}

var retiredColumns = []string{"intro_end_chapter", "intro_end_time"}

var schema = []tableSpec{
	{
		name: "shows",
		columns: []column{
			{name: "id", decl: "INTEGER PRIMARY KEY AUTOINCREMENT"},
			{name: "title", decl: "TEXT NOT NULL", add: "TEXT"},
			{name: "created_at", decl: "TEXT", add: "TEXT"},
		},
	},
	{
		name: "shows_config",
		columns: slices.Concat(
			[]column{
				{name: "show_id", decl: "INTEGER PRIMARY KEY"},
				{name: "use_chapters", decl: "INTEGER NOT NULL DEFAULT 0", add: "INTEGER NOT NULL DEFAULT 0"},
				{name: "use_defaults", decl: "INTEGER NOT NULL DEFAULT 0", add: "INTEGER NOT NULL DEFAULT 0"},
			},
			timeColumns,
			[]column{
				{name: "created_at", decl: "TEXT", add: "TEXT"},
				{name: "updated_at", decl: "TEXT", add: "TEXT"},
			},
		),
		constraints: []string{"FOREIGN KEY (show_id) REFERENCES shows(id) ON DELETE CASCADE"},
		retired:     retiredColumns,
	},
	{
		name: "episodes",
		columns: slices.Concat(
			[]column{
				{name: "id", decl: "INTEGER PRIMARY KEY AUTOINCREMENT"},
				{name: "show_id", decl: "INTEGER", add: "INTEGER"},
				{name: "season", decl: "INTEGER", add: "INTEGER"},
				{name: "episode", decl: "INTEGER", add: "INTEGER"},
			},
			timeColumns,
			[]column{
				{name: "source", decl: "TEXT", add: "TEXT"},
				{name: "created_at", decl: "TEXT", add: "TEXT"},
				{name: "updated_at", decl: "TEXT", add: "TEXT"},
			},
		),
		constraints: []string{
			"FOREIGN KEY (show_id) REFERENCES shows(id) ON DELETE CASCADE",
			"UNIQUE (show_id, season, episode)",
		},
		retired: retiredColumns,
	},
}

// evolveSchema brings any existing database up to the current layout. It
// runs with foreign keys disabled on a dedicated connection so tables can
// be rebuilt.
func (s *Store) evolveSchema(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return unavailable("acquire schema connection", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return unavailable("disable foreign keys", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "PRAGMA foreign_keys = ON")
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin schema tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, def := range schema {
		if err := evolveTable(ctx, tx, def); err != nil {
			return unavailable("evolve "+def.name, err)
		}
	}
	if err := mergeDuplicateShows(ctx, tx); err != nil {
		return unavailable("merge duplicate shows", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE UNIQUE INDEX IF NOT EXISTS idx_shows_title ON shows(title)"); err != nil {
		return unavailable("index shows.title", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit schema", err)
	}
	return nil
}

func evolveTable(ctx context.Context, tx *sql.Tx, def tableSpec) error {
	existing, err := tableColumns(ctx, tx, def.name)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err := tx.ExecContext(ctx, createTableSQL(def.name, def))
		return err
	}
	if slices.ContainsFunc(def.retired, func(name string) bool { return existing[name] }) {
		return rebuildTable(ctx, tx, def, existing)
	}
	for _, col := range def.columns {
		if existing[col.name] || col.add == "" {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", def.name, col.name, col.add)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func createTableSQL(name string, def tableSpec) string {
	defs := make([]string, 0, len(def.columns)+len(def.constraints))
	for _, col := range def.columns {
		defs = append(defs, col.name+" "+col.decl)
	}
	defs = append(defs, def.constraints...)
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", name, strings.Join(defs, ",\n    "))
}

// rebuildTable copies rows into a table with the current layout and swaps
// it in. An intro_end_time column is converted into intro_duration.
func rebuildTable(ctx context.Context, tx *sql.Tx, def tableSpec, existing map[string]bool) error {
	tmp := def.name + "_rebuild"
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+tmp); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(tmp, def)); err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	var targets, sources []string
	for _, col := range def.columns {
		switch {
		case existing[col.name]:
			targets = append(targets, col.name)
			sources = append(sources, col.name)
		case col.name == "intro_duration" && existing["intro_end_time"] && existing["intro_start_time"]:
			targets = append(targets, col.name)
			sources = append(sources, "CASE WHEN intro_end_time > intro_start_time THEN intro_end_time - intro_start_time END")
		}
	}
	copySQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		tmp, strings.Join(targets, ", "), strings.Join(sources, ", "), def.name)
	if _, err := tx.ExecContext(ctx, copySQL); err != nil {
		return fmt.Errorf("copy %s: %w", def.name, err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE "+def.name); err != nil {
		return fmt.Errorf("drop %s: %w", def.name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tmp, def.name)); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// mergeDuplicateShows folds rows sharing a title into the lowest id so the
// unique title index can be created on databases that predate it.
func mergeDuplicateShows(ctx context.Context, tx *sql.Tx) error {
	var dupes int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM shows s WHERE s.id <> (SELECT MIN(k.id) FROM shows k WHERE k.title = s.title)`,
	).Scan(&dupes); err != nil {
		return err
	}
	if dupes == 0 {
		return nil
	}
	stmts := []string{
		`CREATE TEMP TABLE show_merge AS
            SELECT s.id AS dup, (SELECT MIN(k.id) FROM shows k WHERE k.title = s.title) AS keep
            FROM shows s
            WHERE s.id <> (SELECT MIN(k.id) FROM shows k WHERE k.title = s.title)`,
		`UPDATE OR IGNORE episodes
            SET show_id = (SELECT keep FROM show_merge WHERE dup = episodes.show_id)
            WHERE show_id IN (SELECT dup FROM show_merge)`,
		`DELETE FROM episodes WHERE show_id IN (SELECT dup FROM show_merge)`,
		`DELETE FROM shows_config WHERE show_id IN (SELECT dup FROM show_merge)`,
		`DELETE FROM shows WHERE id IN (SELECT dup FROM show_merge)`,
		`DROP TABLE show_merge`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
