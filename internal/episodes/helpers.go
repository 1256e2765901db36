package episodes

import (
	"database/sql"
	"strings"
	"time"
)

const timestampLayout = time.RFC3339Nano

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// parseTimestamp accepts RFC3339 values and the CURRENT_TIMESTAMP format
// written by older databases.
func parseTimestamp(v sql.NullString) time.Time {
	raw := strings.TrimSpace(v.String)
	if !v.Valid || raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{timestampLayout, time.DateTime} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

type timesScan struct {
	introStartChapter sql.NullInt64
	outroStartChapter sql.NullInt64
	introStartTime    sql.NullFloat64
	introDuration     sql.NullFloat64
	outroStartTime    sql.NullFloat64
}

const timesColumns = "intro_start_chapter, outro_start_chapter, intro_start_time, intro_duration, outro_start_time"

func (t *timesScan) dest() []any {
	return []any{&t.introStartChapter, &t.outroStartChapter, &t.introStartTime, &t.introDuration, &t.outroStartTime}
}

func (t *timesScan) times() Times {
	return Times{
		IntroStartChapter: intPtr(t.introStartChapter),
		OutroStartChapter: intPtr(t.outroStartChapter),
		IntroStartTime:    floatPtr(t.introStartTime),
		IntroDuration:     floatPtr(t.introDuration),
		OutroStartTime:    floatPtr(t.outroStartTime),
	}
}

func timesArgs(t Times) []any {
	return []any{
		nullableInt(t.IntroStartChapter),
		nullableInt(t.OutroStartChapter),
		nullableFloat(t.IntroStartTime),
		nullableFloat(t.IntroDuration),
		nullableFloat(t.OutroStartTime),
	}
}
