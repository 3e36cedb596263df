// Package icon derives the icon names and description shown for a
// power device.
package icon

import (
	"strings"

	"codeberg.org/mutker/batterypanel/internal/device"
)

const (
	// DefaultName is used when the service reports no icon.
	DefaultName = "battery-full-charged"
	// LinePowerName is used for line power that reports no icon.
	LinePowerName = "ac-adapter"

	symbolicSuffix = "-symbolic"
)

// Presentation is the derived display data for a device.
type Presentation struct {
	// Name is the full-colour icon used in the detail view.
	Name string
	// Tray is the monochrome variant used on the panel.
	Tray string
	// Description is markup supplied by the service, passed through
	// unchanged.
	Description string
}

// Policy derives presentations with a configurable fallback icon.
type Policy struct {
	fallback string
}

// NewPolicy returns a Policy falling back to fallback, or DefaultName
// when fallback is empty.
func NewPolicy(fallback string) Policy {
	if fallback == "" {
		fallback = DefaultName
	}
	return Policy{fallback: fallback}
}

// Derive computes the presentation for a device of the given kind. An
// empty service icon falls back to LinePowerName for line power and to
// the policy fallback otherwise.
func (p Policy) Derive(kind device.Kind, state device.State) Presentation {
	name := strings.TrimSpace(state.IconName)
	name = strings.TrimSuffix(name, symbolicSuffix)
	if name == "" {
		name = p.fallback
		if kind == device.KindLinePower {
			name = LinePowerName
		}
	}

	return Presentation{
		Name:        name,
		Tray:        Symbolic(name),
		Description: state.Description,
	}
}

// DefaultTray returns the symbolic fallback icon for an empty panel.
func (p Policy) DefaultTray() string {
	return Symbolic(p.fallback)
}

// Derive uses the default policy.
func Derive(kind device.Kind, state device.State) Presentation {
	return NewPolicy("").Derive(kind, state)
}

// Symbolic returns the monochrome variant of name.
func Symbolic(name string) string {
	if strings.HasSuffix(name, symbolicSuffix) {
		return name
	}
	return name + symbolicSuffix
}
