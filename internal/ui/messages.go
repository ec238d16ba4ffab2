package ui

import (
	"github.com/cwbudde/algo-bandscope/internal/recording"
	"github.com/cwbudde/algo-bandscope/internal/settings"
)

// SettingsMsg carries settings that changed on disk.
type SettingsMsg struct {
	Settings settings.Settings
}

// RecordingStartedMsg reports the outcome of a capture request.
type RecordingStartedMsg struct {
	Err error
}

// RecordingDoneMsg carries a finished take.
type RecordingDoneMsg struct {
	Recording *recording.Recording
	Err       error
}

// ErrorMsg surfaces a background failure in the status line.
type ErrorMsg struct {
	Err error
}
