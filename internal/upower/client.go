// Package upower reads power devices from the UPower daemon over the
// system D-Bus.
package upower

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/batterypanel/internal/device"
	"codeberg.org/mutker/batterypanel/internal/errors"
	"codeberg.org/mutker/batterypanel/internal/logger"
	"github.com/godbus/dbus/v5"
)

const (
	busName      = "org.freedesktop.UPower"
	objectPath   = dbus.ObjectPath("/org/freedesktop/UPower")
	managerIface = "org.freedesktop.UPower"
	deviceIface  = "org.freedesktop.UPower.Device"
	propsIface   = "org.freedesktop.DBus.Properties"

	signalBuffer = 32

	// DefaultCallTimeout bounds every method call to the daemon.
	DefaultCallTimeout = 5 * time.Second
)

// EventType is the kind of device notification.
type EventType int

const (
	DeviceAdded EventType = iota
	DeviceChanged
	DeviceRemoved
)

func (t EventType) String() string {
	switch t {
	case DeviceAdded:
		return "added"
	case DeviceChanged:
		return "changed"
	case DeviceRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a device notification from the daemon.
type Event struct {
	Type EventType
	ID   string
}

// Client talks to UPower.
type Client struct {
	conn    *dbus.Conn
	log     logger.Logger
	object  func(path dbus.ObjectPath) dbus.BusObject
	timeout time.Duration

	// ctx bounds calls made without a caller context; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[dbus.ObjectPath]*subscription
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout bounds each method call to the daemon.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Connect opens the system bus.
func Connect(log logger.Logger, opts ...Option) (*Client, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(dbus.NewSequentialSignalHandler()))
	if err != nil {
		return nil, errors.New().Wrap(ErrConnectFailed, err)
	}

	return NewClient(conn, log, opts...), nil
}

// NewClient wraps an open bus connection.
func NewClient(conn *dbus.Conn, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		log:     log,
		timeout: DefaultCallTimeout,
		subs:    make(map[dbus.ObjectPath]*subscription),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.object = func(path dbus.ObjectPath) dbus.BusObject {
		return c.conn.Object(busName, path)
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// call invokes method on path, bounded by ctx and the call timeout.
func (c *Client) call(ctx context.Context, path dbus.ObjectPath, method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.object(path).CallWithContext(ctx, method, 0, args...)
}

// Close cancels outstanding calls and closes the bus connection.
func (c *Client) Close() error {
	c.cancel()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Devices lists the object paths of every device.
func (c *Client) Devices(ctx context.Context) ([]string, error) {
	var paths []dbus.ObjectPath
	err := c.call(ctx, objectPath, managerIface+".EnumerateDevices").Store(&paths)
	if err != nil {
		return nil, errors.New().Wrap(ErrEnumerateFailed, err)
	}

	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, string(p))
	}

	return ids, nil
}

// DisplayDevice returns the composite device UPower offers for panel
// display.
func (c *Client) DisplayDevice(ctx context.Context) (string, error) {
	var path dbus.ObjectPath
	err := c.call(ctx, objectPath, managerIface+".GetDisplayDevice").Store(&path)
	if err != nil {
		return "", errors.New().Wrap(ErrEnumerateFailed, err)
	}

	return string(path), nil
}

// Snapshot reads every device property. A daemon that does not answer
// within the call timeout is an error.
func (c *Client) Snapshot(id string) (device.State, error) {
	props := map[string]dbus.Variant{}
	err := c.call(c.ctx, dbus.ObjectPath(id), propsIface+".GetAll", deviceIface).Store(&props)
	if err != nil {
		return device.State{}, errors.New().Wrap(ErrPropertiesRead, err)
	}

	return StateFromProperties(props), nil
}

// Subscribe adds a PropertiesChanged match rule for the device. Watch
// only delivers changes for paths with a live subscription.
func (c *Client) Subscribe(id string) (device.Subscription, error) {
	path := dbus.ObjectPath(id)
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	}

	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return nil, errors.New().Wrap(ErrSubscribeFailed, err)
	}

	sub := &subscription{client: c, path: path, opts: opts}

	c.mu.Lock()
	c.subs[path] = sub
	c.mu.Unlock()

	return sub, nil
}

// Watch forwards device notifications to events until ctx is done.
func (c *Client) Watch(ctx context.Context, events chan<- Event) error {
	errFactory := errors.New()

	managerOpts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface(managerIface),
	}
	if err := c.conn.AddMatchSignal(managerOpts...); err != nil {
		return errFactory.Wrap(ErrWatchFailed, err)
	}
	defer func() {
		if err := c.conn.RemoveMatchSignal(managerOpts...); err != nil {
			c.log.Debug().Err(err).Msg("Failed to remove manager match rule")
		}
	}()

	signals := make(chan *dbus.Signal, signalBuffer)
	c.conn.Signal(signals)
	defer c.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return errFactory.WithMessage(ErrWatchFailed, "bus connection closed")
			}
			ev, ok := c.translate(sig)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// translate maps a bus signal to an Event.
func (c *Client) translate(sig *dbus.Signal) (Event, bool) {
	switch sig.Name {
	case managerIface + ".DeviceAdded":
		if path, ok := firstPath(sig.Body); ok {
			return Event{Type: DeviceAdded, ID: string(path)}, true
		}
	case managerIface + ".DeviceRemoved":
		if path, ok := firstPath(sig.Body); ok {
			return Event{Type: DeviceRemoved, ID: string(path)}, true
		}
	case propsIface + ".PropertiesChanged":
		if len(sig.Body) == 0 {
			return Event{}, false
		}
		if iface, _ := sig.Body[0].(string); iface != deviceIface {
			return Event{}, false
		}
		if !c.subscribed(sig.Path) {
			return Event{}, false
		}
		return Event{Type: DeviceChanged, ID: string(sig.Path)}, true
	}

	return Event{}, false
}

func (c *Client) subscribed(path dbus.ObjectPath) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[path]
	return ok
}

func firstPath(body []interface{}) (dbus.ObjectPath, bool) {
	if len(body) == 0 {
		return "", false
	}
	path, ok := body[0].(dbus.ObjectPath)
	return path, ok
}

type subscription struct {
	client *Client
	path   dbus.ObjectPath
	opts   []dbus.MatchOption
	once   sync.Once
}

// Cancel stops change delivery for the device. Further calls are no-ops.
func (s *subscription) Cancel() {
	s.once.Do(func() {
		c := s.client

		c.mu.Lock()
		if c.subs[s.path] == s {
			delete(c.subs, s.path)
		}
		c.mu.Unlock()

		if c.conn == nil {
			return
		}
		if err := c.conn.RemoveMatchSignal(s.opts...); err != nil {
			c.log.Debug().Err(err).Str("device", string(s.path)).Msg("Failed to remove device match rule")
		}
	})
}
