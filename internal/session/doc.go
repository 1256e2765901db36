// Package session tracks one playback at a time and decides when to offer a
// skip.
//
// Machine is a pure reducer: Step takes the current State and an Event and
// returns the next State plus the Actions to perform. Controller feeds host
// events through the Machine one at a time and carries out the actions:
// it runs detection in the background, opens the prompt, seeks and saves
// resolved times. Results from background work re-enter the Machine as
// events tagged with the session id, so work that finishes after the
// viewer moved on is dropped.
package session
