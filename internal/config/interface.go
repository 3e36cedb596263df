package config

import "strings"

// LogLevel is a configured logging level name.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ParseLogLevel normalises a level name. Case is ignored and "warn" is
// accepted for warning.
func ParseLogLevel(s string) (LogLevel, bool) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return l, true
	case "warn":
		return LogLevelWarning, true
	default:
		return "", false
	}
}

func (l LogLevel) String() string {
	return string(l)
}
