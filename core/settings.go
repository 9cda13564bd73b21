package conversation

import "time"

const (
	DefaultWakeWord       = "jarvis"
	DefaultSilenceTimeout = 2 * time.Second
)

// Settings is a read-only snapshot of user preferences. The controller
// takes a fresh snapshot at the start of each state transition and never
// mutates it.
type Settings struct {
	WakeWordEnabled bool
	WakeWord        string
	SilenceTimeout  time.Duration
	// OfflineMode forces local-only processing even when connectivity
	// exists.
	OfflineMode bool
	// Voice is the synthesis voice preference, passed through to the
	// synthesizer untouched. Empty means provider default.
	Voice string
}

func (s Settings) withDefaults() Settings {
	if s.WakeWord == "" {
		s.WakeWord = DefaultWakeWord
	}
	if s.SilenceTimeout <= 0 {
		s.SilenceTimeout = DefaultSilenceTimeout
	}
	return s
}

// SettingsSource provides the current settings snapshot. Implementations
// must be safe for concurrent use.
type SettingsSource interface {
	Snapshot() Settings
}

type staticSettingsSource struct {
	settings Settings
}

// StaticSettings wraps a fixed settings value as a SettingsSource.
func StaticSettings(settings Settings) SettingsSource {
	return staticSettingsSource{settings: settings}
}

func (s staticSettingsSource) Snapshot() Settings {
	return s.settings
}
