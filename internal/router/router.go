// Package router keeps device records, the panel icon and the detail
// view in step with the power management service's notifications.
package router

import (
	"codeberg.org/mutker/batterypanel/internal/device"
	"codeberg.org/mutker/batterypanel/internal/icon"
	"codeberg.org/mutker/batterypanel/internal/logger"
)

// Router handles device added, changed and removed notifications.
//
// Unknown identities are ignored by every handler. A Router is not safe
// for concurrent use.
type Router struct {
	reg    *device.Registry
	source Source
	policy icon.Policy
	tray   TraySink
	view   DetailView
	log    logger.Logger

	hint     string
	viewOpen bool
	trayIcon string
}

// Option configures a Router.
type Option func(*Router)

// WithPolicy sets the icon policy.
func WithPolicy(p icon.Policy) Option {
	return func(r *Router) { r.policy = p }
}

// WithDetailView sets the detail view sink.
func WithDetailView(v DetailView) Option {
	return func(r *Router) {
		if v != nil {
			r.view = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Router) { r.log = log }
}

// New creates a Router over reg.
func New(reg *device.Registry, source Source, tray TraySink, opts ...Option) *Router {
	r := &Router{
		reg:    reg,
		source: source,
		tray:   tray,
		policy: icon.NewPolicy(""),
		view:   noopView{},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetHint sets the service's display device hint. It is called once at
// startup, before the first OnAdded.
func (r *Router) SetHint(id string) {
	r.hint = id
}

// Hint returns the display device hint.
func (r *Router) Hint() string {
	return r.hint
}

// Registry returns the registry the router mutates.
func (r *Router) Registry() *device.Registry {
	return r.reg
}

// Selected returns the current display device.
func (r *Router) Selected() (string, bool) {
	return device.Select(r.reg, r.hint)
}

// TrayIcon returns the icon name last pushed to the tray sink.
func (r *Router) TrayIcon() string {
	return r.trayIcon
}

// OnAdded registers a new device. Redelivered adds are ignored.
func (r *Router) OnAdded(id string) {
	if _, ok := r.reg.Lookup(id); ok {
		r.log.Debug().Str("device", id).Msg("Ignoring duplicate device add")
		return
	}

	sub, err := r.source.Subscribe(id)
	if err != nil {
		r.log.Warn().Err(err).Str("device", id).Msg("Failed to subscribe to device changes")
		return
	}

	state, err := r.source.Snapshot(id)
	if err != nil {
		sub.Cancel()
		r.log.Debug().Err(err).Str("device", id).Msg("Device vanished before it could be read")
		return
	}

	rec, _ := r.reg.Add(id, state.Kind, sub)
	r.apply(rec, state)

	r.log.Info().
		Str("device", id).
		Stringer("kind", state.Kind).
		Float64("percentage", state.Percentage).
		Msg("Device added")

	r.RefreshTray()

	if r.viewOpen {
		r.attach(rec)
	}
}

// OnChanged refreshes a device from the service.
func (r *Router) OnChanged(id string) {
	rec, ok := r.reg.Lookup(id)
	if !ok {
		r.log.Debug().Str("device", id).Msg("Ignoring change for unknown device")
		return
	}

	state, err := r.source.Snapshot(id)
	if err != nil {
		r.log.Debug().Err(err).Str("device", id).Msg("Failed to read changed device")
		return
	}

	r.apply(rec, state)
	r.RefreshTray()

	if ref, ok := rec.View(); ok {
		r.view.Update(ref, rec.IconName, rec.Description)
	}
}

// OnRemoved detaches the device's view element, then drops the record
// and its subscription.
func (r *Router) OnRemoved(id string) {
	rec, ok := r.reg.Lookup(id)
	if !ok {
		r.log.Debug().Str("device", id).Msg("Ignoring removal of unknown device")
		return
	}

	if ref := rec.DetachView(); ref != 0 {
		r.view.Detach(ref)
	}
	r.reg.Remove(id)

	r.log.Info().Str("device", id).Msg("Device removed")

	r.RefreshTray()
}

// OpenView shows every eligible device in the detail view.
func (r *Router) OpenView() {
	if r.viewOpen {
		return
	}
	r.viewOpen = true

	for _, rec := range r.reg.Records() {
		r.attach(rec)
	}
}

// CloseView tears down every detail view element. Devices and their
// subscriptions stay live.
func (r *Router) CloseView() {
	if !r.viewOpen {
		return
	}
	r.viewOpen = false

	for _, rec := range r.reg.Records() {
		if ref := rec.DetachView(); ref != 0 {
			r.view.Detach(ref)
		}
	}
}

// ViewOpen reports whether the detail view is open.
func (r *Router) ViewOpen() bool {
	return r.viewOpen
}

// ViewDestroyed clears the reference to an element the view tore down
// on its own.
func (r *Router) ViewDestroyed(ref device.ViewRef) {
	if ref == 0 {
		return
	}
	for _, rec := range r.reg.Records() {
		if current, ok := rec.View(); ok && current == ref {
			rec.DetachView()
			return
		}
	}
}

// Shutdown closes the detail view and clears the registry, revoking
// every subscription.
func (r *Router) Shutdown() {
	r.CloseView()
	r.reg.Clear()
}

func (r *Router) apply(rec *device.Record, state device.State) {
	rec.Apply(state)

	p := r.policy.Derive(state.Kind, state)
	rec.IconName = p.Name
	rec.TrayIcon = p.Tray
	rec.Description = p.Description
}

// RefreshTray re-runs selection and pushes the tray icon when it
// differs from the last one shown.
func (r *Router) RefreshTray() {
	name := r.policy.DefaultTray()
	if id, ok := device.Select(r.reg, r.hint); ok {
		rec, _ := r.reg.Lookup(id)
		name = rec.TrayIcon
	}

	if name == r.trayIcon {
		return
	}
	r.trayIcon = name
	r.tray.SetIcon(name)
}

// attach adds rec to the detail view. Line power and the hinted display
// device are not listed.
func (r *Router) attach(rec *device.Record) {
	if rec.Kind == device.KindLinePower || rec.ID == r.hint {
		return
	}
	if _, ok := rec.View(); ok {
		return
	}

	ref := r.view.Attach(rec.ID)
	if ref == 0 {
		return
	}
	rec.AttachView(ref)
	r.view.Update(ref, rec.IconName, rec.Description)
}
