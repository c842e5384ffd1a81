package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoScreens is returned by Run when nothing was configured.
	ErrNoScreens = errors.New("tui: no screens to run")
)
