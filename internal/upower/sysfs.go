package upower

import (
	"os"
	"strings"
)

// ScanBattery reports whether dir, a power_supply sysfs class
// directory, lists a battery.
func ScanBattery(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "BAT") {
			return true
		}
	}

	return false
}
