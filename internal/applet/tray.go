package applet

import "codeberg.org/mutker/batterypanel/internal/logger"

// LogTray is the tray sink used without a popup. It logs icon changes.
type LogTray struct {
	log logger.Logger
}

// NewLogTray creates a LogTray.
func NewLogTray(log logger.Logger) *LogTray {
	return &LogTray{log: log}
}

// SetIcon logs the new tray icon.
func (t *LogTray) SetIcon(name string) {
	t.log.Info().Str("icon", name).Msg("Tray icon changed")
}
