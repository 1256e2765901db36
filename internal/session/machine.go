package session

import (
	"github.com/google/uuid"

	"skipintro/internal/skipwindow"
)

// Machine holds the settings the transitions depend on. It has no other
// state; the same State and Event always produce the same result apart
// from the session id minted on PlaybackStarted.
type Machine struct {
	Settings  skipwindow.Settings
	SaveTimes bool
	// NewSessionID defaults to a random UUID.
	NewSessionID func() string
}

// Step applies ev to s.
func (m Machine) Step(s State, ev Event) (State, []Action) {
	switch e := ev.(type) {
	case PlaybackStarted:
		var actions []Action
		if s.Active() {
			actions = teardown(s)
		}
		return State{SessionID: m.newID(), File: e.File}, actions

	case AVStarted:
		if !s.Active() || s.Phase != PhaseIdle || s.BookmarksChecked {
			return s, nil
		}
		s.Phase = PhaseDetecting
		return s, []Action{StartDetection{SessionID: s.SessionID, File: s.File}}

	case Detected:
		if e.SessionID != s.SessionID || s.Phase != PhaseDetecting {
			return s, nil
		}
		s.BookmarksChecked = true
		s.Episode = e.Episode
		s.ShowID = e.ShowID
		if e.Resolution == nil {
			return s, nil
		}
		w := e.Resolution.Window
		s.Window = &w
		s.Rule = e.Resolution.Rule
		s.Phase = PhaseResolved
		if !w.Skippable() {
			return s, nil
		}
		if save, ok := m.saveAction(s, *e.Resolution); ok {
			return s, []Action{save}
		}
		return s, nil

	case Tick:
		return m.tick(s, e.Time)

	case PromptAnswered:
		if e.SessionID != s.SessionID || s.Phase != PhasePrompting || s.Window == nil {
			return s, nil
		}
		if !e.Accepted {
			s.Phase = PhaseResolved
			return s, nil
		}
		s.Phase = PhaseConsumed
		actions := []Action{Seek{To: s.Window.End}}
		if s.Window.Source == skipwindow.SourceDefault {
			res := skipwindow.Resolution{Window: *s.Window, Rule: skipwindow.RuleDefaultDelay}
			if save, ok := m.saveAction(s, res); ok {
				actions = append(actions, save)
			}
		}
		return s, actions

	case PlaybackStopped, PlaybackEnded:
		if !s.Active() {
			return State{}, nil
		}
		return State{}, teardown(s)
	}
	return s, nil
}

func (m Machine) tick(s State, now float64) (State, []Action) {
	if s.Phase == PhaseDetecting && s.BookmarksChecked && s.Window == nil && !s.DefaultSkipChecked {
		if w, ok := skipwindow.Default(now, m.Settings); ok {
			s.DefaultSkipChecked = true
			s.Window = &w
			s.Rule = skipwindow.RuleDefaultDelay
			s.Phase = PhaseResolved
		}
	}
	if s.Phase == PhaseResolved && !s.PromptShown && s.Window != nil && s.Window.Contains(now) {
		s.Phase = PhasePrompting
		s.PromptShown = true
		return s, []Action{ShowPrompt{SessionID: s.SessionID, Window: *s.Window}}
	}
	return s, nil
}

func (m Machine) saveAction(s State, res skipwindow.Resolution) (Action, bool) {
	if !m.SaveTimes || s.Episode == nil || s.ShowID == 0 {
		return nil, false
	}
	source, ok := res.SaveSource()
	if !ok {
		return nil, false
	}
	return SaveTimes{
		ShowID:  s.ShowID,
		Episode: *s.Episode,
		Times:   res.Times(),
		Source:  source,
		Rule:    res.Rule,
	}, true
}

func (m Machine) newID() string {
	if m.NewSessionID != nil {
		return m.NewSessionID()
	}
	return uuid.NewString()
}

func teardown(s State) []Action {
	return []Action{CancelDetection{SessionID: s.SessionID}, ClosePrompt{SessionID: s.SessionID}}
}
