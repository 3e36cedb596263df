package router

import "codeberg.org/mutker/batterypanel/internal/device"

// Source is the power management service as seen by the router.
type Source interface {
	// Snapshot reads the current attributes of a device.
	Snapshot(id string) (device.State, error)
	// Subscribe starts change notifications for a device.
	Subscribe(id string) (device.Subscription, error)
}

// TraySink shows the panel icon.
type TraySink interface {
	SetIcon(name string)
}

// DetailView is the list of devices shown while the popup is open.
type DetailView interface {
	// Attach creates an element for the device and returns its
	// reference, or zero when no element was created.
	Attach(id string) device.ViewRef
	Update(ref device.ViewRef, icon, description string)
	Detach(ref device.ViewRef)
}

type noopView struct{}

func (noopView) Attach(string) device.ViewRef          { return 0 }
func (noopView) Update(device.ViewRef, string, string) {}
func (noopView) Detach(device.ViewRef)                 {}
