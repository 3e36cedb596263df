package device

// Kind classifies a power device.
type Kind int

const (
	KindOther Kind = iota
	KindLinePower
	KindBattery
	KindUPS
)

var kindNames = [...]string{"other", "line-power", "battery", "ups"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindOther]
	}
	return kindNames[k]
}

// HasCharge reports whether percentage is meaningful for the kind.
func (k Kind) HasCharge() bool {
	return k == KindBattery || k == KindUPS
}

// State is a typed snapshot of a device's attributes, taken once per
// change notification.
type State struct {
	Kind        Kind
	Percentage  float64
	IconName    string
	Description string
}

// Subscription is a handle on the service's per-device change
// notifications.
type Subscription interface {
	Cancel()
}

// ViewRef identifies a detail view element. The zero value means no
// element.
type ViewRef uint64

// Record is the registry's entry for one device.
type Record struct {
	ID         string
	Kind       Kind
	Percentage float64

	// Derived presentation, see package icon.
	IconName    string
	TrayIcon    string
	Description string

	sub  Subscription
	view ViewRef
}

// View returns the detail view element showing the record, if any.
func (r *Record) View() (ViewRef, bool) {
	return r.view, r.view != 0
}

// AttachView records the element now displaying r.
func (r *Record) AttachView(ref ViewRef) {
	r.view = ref
}

// DetachView clears the element reference and returns the previous one.
func (r *Record) DetachView() ViewRef {
	ref := r.view
	r.view = 0
	return ref
}

// Apply copies the service attributes from s into the record.
func (r *Record) Apply(s State) {
	r.Kind = s.Kind
	r.Percentage = s.Percentage
}

// subscribed reports whether the record still holds a live subscription.
func (r *Record) subscribed() bool {
	return r.sub != nil
}

func (r *Record) revoke() {
	if r.sub != nil {
		r.sub.Cancel()
		r.sub = nil
	}
}
