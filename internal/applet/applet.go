// Package applet runs the panel's single event loop. Service
// notifications and UI commands are funnelled through one goroutine that
// owns the router, so device records are never touched concurrently.
package applet

import (
	"context"
	"sync"

	"codeberg.org/mutker/batterypanel/internal/brightness"
	"codeberg.org/mutker/batterypanel/internal/device"
	"codeberg.org/mutker/batterypanel/internal/icon"
	"codeberg.org/mutker/batterypanel/internal/logger"
	"codeberg.org/mutker/batterypanel/internal/router"
	"codeberg.org/mutker/batterypanel/internal/upower"
)

const eventBuffer = 16

// Service is the power management service the applet listens to.
type Service interface {
	router.Source
	DisplayDevice(ctx context.Context) (string, error)
	Devices(ctx context.Context) ([]string, error)
	Watch(ctx context.Context, events chan<- upower.Event) error
}

// Applet owns the router and feeds it from the service and the UI.
type Applet struct {
	svc    Service
	router *router.Router
	log    logger.Logger
	ctl    *brightness.Control

	events chan upower.Event

	// UI commands run on the loop in the order they were queued.
	mu      sync.Mutex
	queue   []func(*router.Router)
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// Option configures an Applet.
type Option func(*options)

type options struct {
	view   router.DetailView
	policy icon.Policy
	log    logger.Logger
	ctl    *brightness.Control
}

// WithDetailView sets the detail view sink.
func WithDetailView(v router.DetailView) Option {
	return func(o *options) { o.view = v }
}

// WithPolicy sets the icon policy.
func WithPolicy(p icon.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithBrightness hands the brightness control to the applet so its
// debouncer is stopped first on shutdown.
func WithBrightness(ctl *brightness.Control) Option {
	return func(o *options) { o.ctl = ctl }
}

// New creates an Applet that shows the display device on tray.
func New(svc Service, tray router.TraySink, opts ...Option) *Applet {
	o := options{
		policy: icon.NewPolicy(""),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Applet{
		svc: svc,
		router: router.New(device.NewRegistry(), svc, tray,
			router.WithPolicy(o.policy),
			router.WithDetailView(o.view),
			router.WithLogger(o.log),
		),
		log:      o.log,
		ctl:      o.ctl,
		events: make(chan upower.Event, eventBuffer),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Run enumerates the service's devices, then routes notifications and
// UI commands until ctx is cancelled. Teardown happens before Run
// returns.
func (a *Applet) Run(ctx context.Context) error {
	defer a.stop()

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.svc.Watch(watchCtx, a.events)
	}()

	a.start(ctx)

	errs := watchErr
	for {
		select {
		case <-ctx.Done():
			a.shutdown(stopWatch, errs)
			return nil
		case ev := <-a.events:
			a.dispatch(ev)
		case <-a.wake:
			a.drain()
		case err := <-errs:
			errs = nil
			if err != nil {
				a.log.Warn().Err(err).Msg("Device notifications unavailable, showing last known state")
			}
		}
	}
}

// SetViewOpen opens or closes the detail view. Requests apply in call
// order and never block.
func (a *Applet) SetViewOpen(open bool) {
	a.do(func(r *router.Router) {
		if open {
			r.OpenView()
		} else {
			r.CloseView()
		}
	})
}

// OpenView opens the detail view.
func (a *Applet) OpenView() {
	a.SetViewOpen(true)
}

// CloseView closes the detail view.
func (a *Applet) CloseView() {
	a.SetViewOpen(false)
}

// ViewDestroyed reports that the UI tore down a detail view element.
func (a *Applet) ViewDestroyed(ref device.ViewRef) {
	a.do(func(r *router.Router) { r.ViewDestroyed(ref) })
}

// ViewOpen reports whether the detail view is open once every command
// queued before the call has run. It reports false after Run returns.
func (a *Applet) ViewOpen() bool {
	reply := make(chan bool, 1)
	if !a.do(func(r *router.Router) { reply <- r.ViewOpen() }) {
		return false
	}

	select {
	case open := <-reply:
		return open
	case <-a.done:
		return false
	}
}

// Router returns the applet's router. It must only be used after Run
// returns.
func (a *Applet) Router() *router.Router {
	return a.router
}

// do queues cmd for the event loop. It reports false once Run has
// returned.
func (a *Applet) do(cmd func(*router.Router)) bool {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return false
	}
	a.queue = append(a.queue, cmd)
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return true
}

func (a *Applet) drain() {
	a.mu.Lock()
	cmds := a.queue
	a.queue = nil
	a.mu.Unlock()

	for _, cmd := range cmds {
		cmd(a.router)
	}
}

func (a *Applet) stop() {
	a.mu.Lock()
	a.stopped = true
	a.queue = nil
	a.mu.Unlock()
	close(a.done)
}

func (a *Applet) start(ctx context.Context) {
	hint, err := a.svc.DisplayDevice(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to get display device")
	}
	a.router.SetHint(hint)
	if hint != "" {
		a.router.OnAdded(hint)
	}

	ids, err := a.svc.Devices(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to enumerate devices")
	}
	for _, id := range ids {
		a.router.OnAdded(id)
	}

	// an empty panel still shows the default icon
	a.router.RefreshTray()

	a.log.Debug().
		Int("devices", a.router.Registry().Len()).
		Str("display_device", hint).
		Msg("Initial enumeration complete")
}

func (a *Applet) dispatch(ev upower.Event) {
	switch ev.Type {
	case upower.DeviceAdded:
		a.router.OnAdded(ev.ID)
	case upower.DeviceChanged:
		a.router.OnChanged(ev.ID)
	case upower.DeviceRemoved:
		a.router.OnRemoved(ev.ID)
	}
}

// shutdown stops the brightness timer, closes the detail view, stops
// service notifications and finally revokes every subscription.
func (a *Applet) shutdown(stopWatch context.CancelFunc, watchErr <-chan error) {
	if a.ctl != nil {
		a.ctl.Close()
	}

	a.router.CloseView()

	stopWatch()
	if watchErr != nil {
		<-watchErr
	}

	a.router.Shutdown()
	a.log.Debug().Msg("Applet stopped")
}
