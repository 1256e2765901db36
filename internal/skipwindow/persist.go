package skipwindow

import "skipintro/internal/episodes"

// Times converts the resolution into the fields saved for an episode.
// Chapter numbers are kept alongside the exact times so the episode still
// resolves if its chapters later become unreadable.
func (r Resolution) Times() episodes.Times {
	w := r.Window
	t := episodes.Times{OutroStartTime: copyFloat(w.OutroStart)}
	start := w.Start
	duration := w.Duration()
	t.IntroStartTime = &start
	t.IntroDuration = &duration
	if r.IntroChapter > 0 {
		n := r.IntroChapter
		t.IntroStartChapter = &n
	}
	if r.OutroChapter > 0 {
		n := r.OutroChapter
		t.OutroStartChapter = &n
	}
	return t
}

// SaveSource returns the time source recorded when this resolution is
// persisted, and false when it should not be written back.
func (r Resolution) SaveSource() (episodes.TimeSource, bool) {
	if !r.Window.Skippable() {
		return "", false
	}
	switch r.Rule {
	case RuleShowChapters, RuleHeuristic:
		return episodes.SourceChapters, true
	case RuleShowDefaultTime:
		return episodes.SourceShowDefault, true
	case RuleDefaultDelay:
		return episodes.SourceDefault, true
	default:
		// the episode's own row already holds these values
		return "", false
	}
}
