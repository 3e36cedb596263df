package popup

import "codeberg.org/mutker/batterypanel/internal/device"

// TrayIconMsg sets the icon shown in the header.
type TrayIconMsg struct {
	Name string
}

// AttachMsg adds a device row to the detail view.
type AttachMsg struct {
	Ref device.ViewRef
	ID  string
}

// UpdateMsg refreshes a device row.
type UpdateMsg struct {
	Ref         device.ViewRef
	Icon        string
	Description string
}

// DetachMsg removes a device row.
type DetachMsg struct {
	Ref device.ViewRef
}
