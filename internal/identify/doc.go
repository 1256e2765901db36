// Package identify works out which show episode is playing.
//
// Player metadata tags win when they carry a title, season and episode.
// Otherwise the file name is parsed, first with go-ptn and then with a
// SxxEyy / NxM pattern. Parsed titles are canonicalized against the show
// titles already stored so that "Show.Name" and "Show Name" share settings.
package identify
