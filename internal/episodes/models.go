package episodes

import "time"

// TimeSource records where saved episode times came from.
type TimeSource string

const (
	SourceChapters    TimeSource = "chapters"
	SourceManual      TimeSource = "manual"
	SourceDefault     TimeSource = "default"
	SourceShowDefault TimeSource = "show_default"
)

// Valid reports whether s is a known source.
func (s TimeSource) Valid() bool {
	switch s {
	case SourceChapters, SourceManual, SourceDefault, SourceShowDefault:
		return true
	default:
		return false
	}
}

// Times holds the chapter and time fields shared by show configs and
// episode overrides. Chapter numbers are 1-based; times are seconds.
type Times struct {
	IntroStartChapter *int
	OutroStartChapter *int
	IntroStartTime    *float64
	IntroDuration     *float64
	OutroStartTime    *float64
}

// IsZero reports whether no field is set.
func (t Times) IsZero() bool {
	return t.IntroStartChapter == nil && t.OutroStartChapter == nil &&
		t.IntroStartTime == nil && t.IntroDuration == nil && t.OutroStartTime == nil
}

// Show is a known series.
type Show struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// ShowConfig is the per-show skip configuration. A freshly created show has
// a neutral config: every field unset and both flags false.
type ShowConfig struct {
	ShowID      int64
	UseChapters bool
	// UseDefaults applies the show's times to every episode without its own
	// override, and makes each saved episode refresh them.
	UseDefaults bool
	Times
	UpdatedAt time.Time
}

// EpisodeOverride is the saved skip data for one episode.
type EpisodeOverride struct {
	ShowID  int64
	Season  int
	Episode int
	Times
	Source    TimeSource
	UpdatedAt time.Time
}

// IntPtr and FloatPtr are helpers for building Times literals.
func IntPtr(v int) *int { return &v }

func FloatPtr(v float64) *float64 { return &v }
