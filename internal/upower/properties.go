package upower

import (
	"fmt"
	"html"
	"strings"

	"codeberg.org/mutker/batterypanel/internal/device"
	"github.com/godbus/dbus/v5"
)

// UPower device types.
const (
	typeUnknown uint32 = iota
	typeLinePower
	typeBattery
	typeUPS
	typeMonitor
	typeMouse
	typeKeyboard
	typePDA
	typePhone
)

// UPower charge states.
const (
	stateUnknown uint32 = iota
	stateCharging
	stateDischarging
	stateEmpty
	stateFullyCharged
	statePendingCharge
	statePendingDischarge
)

var typeLabels = map[uint32]string{
	typeLinePower: "AC adapter",
	typeBattery:   "Battery",
	typeUPS:       "UPS",
	typeMonitor:   "Monitor",
	typeMouse:     "Mouse",
	typeKeyboard:  "Keyboard",
	typePDA:       "PDA",
	typePhone:     "Phone",
}

var stateLabels = map[uint32]string{
	stateCharging:         "Charging",
	stateDischarging:      "Discharging",
	stateEmpty:            "Empty",
	stateFullyCharged:     "Fully charged",
	statePendingCharge:    "Waiting to charge",
	statePendingDischarge: "Waiting to discharge",
}

// KindFromType maps a UPower device type to a device kind.
func KindFromType(t uint32) device.Kind {
	switch t {
	case typeLinePower:
		return device.KindLinePower
	case typeBattery:
		return device.KindBattery
	case typeUPS:
		return device.KindUPS
	default:
		return device.KindOther
	}
}

// StateFromProperties builds a snapshot from the
// org.freedesktop.UPower.Device properties.
func StateFromProperties(props map[string]dbus.Variant) device.State {
	t := propUint32(props, "Type")
	kind := KindFromType(t)

	pct := propFloat64(props, "Percentage")
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}

	return device.State{
		Kind:        kind,
		Percentage:  pct,
		IconName:    propString(props, "IconName"),
		Description: Describe(props),
	}
}

// Describe returns a markup description of the device: a bold type
// label, the vendor and model when known, and the charge state.
func Describe(props map[string]dbus.Variant) string {
	t := propUint32(props, "Type")

	label, ok := typeLabels[t]
	if !ok {
		label = "Device"
	}

	lines := []string{"<b>" + label + "</b>"}

	name := strings.TrimSpace(propString(props, "Vendor") + " " + propString(props, "Model"))
	if name != "" && t != typeLinePower {
		lines = append(lines, html.EscapeString(name))
	}

	switch {
	case t == typeLinePower:
		if propBool(props, "Online") {
			lines = append(lines, "Plugged in")
		} else {
			lines = append(lines, "Not plugged in")
		}
	case t == typeBattery && !propBool(props, "IsPresent") && hasProp(props, "IsPresent"):
		lines = append(lines, "Not present")
	default:
		pct := propFloat64(props, "Percentage")
		if state, ok := stateLabels[propUint32(props, "State")]; ok {
			lines = append(lines, fmt.Sprintf("%s (%.0f%%)", state, pct))
		} else {
			lines = append(lines, fmt.Sprintf("%.0f%%", pct))
		}
	}

	return strings.Join(lines, "\n")
}

func hasProp(props map[string]dbus.Variant, name string) bool {
	_, ok := props[name]
	return ok
}

func propUint32(props map[string]dbus.Variant, name string) uint32 {
	v, ok := props[name]
	if !ok {
		return 0
	}
	u, _ := v.Value().(uint32)
	return u
}

func propFloat64(props map[string]dbus.Variant, name string) float64 {
	v, ok := props[name]
	if !ok {
		return 0
	}
	f, _ := v.Value().(float64)
	return f
}

func propString(props map[string]dbus.Variant, name string) string {
	v, ok := props[name]
	if !ok {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

func propBool(props map[string]dbus.Variant, name string) bool {
	v, ok := props[name]
	if !ok {
		return false
	}
	b, _ := v.Value().(bool)
	return b
}
