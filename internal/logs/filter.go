package logs

import (
	"encoding/json"
	"strings"

	"skipintro/internal/logging"
)

// Filters selects run log lines by their structured fields. Empty fields
// match everything.
type Filters struct {
	Component  string
	PlaybackID string
	// Episode matches the episode label by substring, ignoring case.
	Episode  string
	Level    string
	Decision string
	Search   string
}

func (f Filters) empty() bool {
	return f == Filters{}
}

// Match reports whether line passes f. Lines that are not JSON objects only
// pass when f is empty or Search finds them.
func (f Filters) Match(line string) bool {
	if f.empty() {
		return true
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(line), strings.ToLower(f.Search)) {
		return false
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return f == Filters{Search: f.Search}
	}
	field := func(key string) string {
		s, _ := record[key].(string)
		return s
	}

	switch {
	case f.Component != "" && !strings.EqualFold(field(logging.FieldComponent), f.Component):
		return false
	case f.PlaybackID != "" && field(logging.FieldPlaybackID) != f.PlaybackID:
		return false
	case f.Episode != "" && !strings.Contains(strings.ToLower(field(logging.FieldEpisodeLabel)), strings.ToLower(f.Episode)):
		return false
	case f.Level != "" && !strings.EqualFold(field("level"), f.Level):
		return false
	case f.Decision != "" && !strings.EqualFold(field(logging.FieldDecisionType), f.Decision):
		return false
	}
	return true
}
