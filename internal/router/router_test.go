package router

import (
	"errors"
	"testing"

	"codeberg.org/mutker/batterypanel/internal/device"
	"codeberg.org/mutker/batterypanel/internal/icon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeSub struct {
	id     string
	source *fakeSource
}

func (s *fakeSub) Cancel() { s.source.live[s.id]-- }

type fakeSource struct {
	states       map[string]device.State
	live         map[string]int
	subscribeErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		states: make(map[string]device.State),
		live:   make(map[string]int),
	}
}

func (s *fakeSource) Snapshot(id string) (device.State, error) {
	st, ok := s.states[id]
	if !ok {
		return device.State{}, errors.New("no such device")
	}
	return st, nil
}

func (s *fakeSource) Subscribe(id string) (device.Subscription, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	s.live[id]++
	return &fakeSub{id: id, source: s}, nil
}

type fakeTray struct {
	icons []string
}

func (t *fakeTray) SetIcon(name string) { t.icons = append(t.icons, name) }

func (t *fakeTray) last() string {
	if len(t.icons) == 0 {
		return ""
	}
	return t.icons[len(t.icons)-1]
}

type viewElement struct {
	id          string
	icon        string
	description string
}

type fakeView struct {
	next     device.ViewRef
	elements map[device.ViewRef]*viewElement
	detached []device.ViewRef
}

func newFakeView() *fakeView {
	return &fakeView{elements: make(map[device.ViewRef]*viewElement)}
}

func (v *fakeView) Attach(id string) device.ViewRef {
	v.next++
	v.elements[v.next] = &viewElement{id: id}
	return v.next
}

func (v *fakeView) Update(ref device.ViewRef, iconName, description string) {
	el, ok := v.elements[ref]
	if !ok {
		panic("update on detached element")
	}
	el.icon = iconName
	el.description = description
}

func (v *fakeView) Detach(ref device.ViewRef) {
	delete(v.elements, ref)
	v.detached = append(v.detached, ref)
}

func (v *fakeView) byID(id string) *viewElement {
	for _, el := range v.elements {
		if el.id == id {
			return el
		}
	}
	return nil
}

var _ Source = (*fakeSource)(nil)
var _ TraySink = (*fakeTray)(nil)
var _ DetailView = (*fakeView)(nil)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	source *fakeSource
	tray   *fakeTray
	view   *fakeView
	router *Router
}

func newFixture() *fixture {
	f := &fixture{
		source: newFakeSource(),
		tray:   &fakeTray{},
		view:   newFakeView(),
	}
	f.router = New(device.NewRegistry(), f.source, f.tray, WithDetailView(f.view))
	return f
}

func (f *fixture) set(id string, kind device.Kind, pct float64, iconName string) {
	f.source.states[id] = device.State{
		Kind:        kind,
		Percentage:  pct,
		IconName:    iconName,
		Description: "<b>" + id + "</b>",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestOnAddedPushesSelectedIcon(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")

	f.router.OnAdded("/bat0")

	rec, ok := f.router.Registry().Lookup("/bat0")
	require.True(t, ok)
	assert.Equal(t, "battery-good", rec.IconName)
	assert.Equal(t, "<b>/bat0</b>", rec.Description)
	assert.Equal(t, []string{"battery-good-symbolic"}, f.tray.icons)
	assert.Equal(t, 1, f.source.live["/bat0"])
}

func TestOnAddedDuplicateKeepsOneRecordAndSubscription(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")

	f.router.OnAdded("/bat0")
	f.router.OnAdded("/bat0")

	assert.Equal(t, 1, f.router.Registry().Len())
	assert.Equal(t, 1, f.source.live["/bat0"])
	assert.Len(t, f.tray.icons, 1)
}

func TestOnAddedUnknownDeviceIsIgnored(t *testing.T) {
	f := newFixture()

	f.router.OnAdded("/ghost")

	assert.Equal(t, 0, f.router.Registry().Len())
	assert.Equal(t, 0, f.source.live["/ghost"], "subscription must be released")
	assert.Empty(t, f.tray.icons)
}

func TestOnAddedSubscribeFailure(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")
	f.source.subscribeErr = errors.New("bus gone")

	f.router.OnAdded("/bat0")

	assert.Equal(t, 0, f.router.Registry().Len())
}

func TestOnAddedLinePowerUsesDefaultTray(t *testing.T) {
	f := newFixture()
	f.set("/ac", device.KindLinePower, 0, "ac-adapter")

	f.router.OnAdded("/ac")

	_, selected := f.router.Selected()
	assert.False(t, selected)
	assert.Equal(t, []string{"battery-full-charged-symbolic"}, f.tray.icons)
}

func TestOnAddedNonSelectedDoesNotRepush(t *testing.T) {
	f := newFixture()
	f.set("/ups0", device.KindUPS, 85, "ups-good")
	f.set("/bat0", device.KindBattery, 40, "battery-low")

	f.router.OnAdded("/ups0")
	f.router.OnAdded("/bat0")

	assert.Equal(t, []string{"ups-good-symbolic"}, f.tray.icons)
}

func TestOnChangedUpdatesSelectedIcon(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")
	f.router.OnAdded("/bat0")

	f.set("/bat0", device.KindBattery, 10, "battery-caution")
	f.router.OnChanged("/bat0")

	rec, _ := f.router.Registry().Lookup("/bat0")
	assert.InDelta(t, 10.0, rec.Percentage, 0.001)
	assert.Equal(t, "battery-caution-symbolic", f.tray.last())
	assert.Len(t, f.tray.icons, 2)
}

func TestOnChangedSameIconIsNotRepushed(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")
	f.router.OnAdded("/bat0")

	f.set("/bat0", device.KindBattery, 41, "battery-good")
	f.router.OnChanged("/bat0")

	assert.Len(t, f.tray.icons, 1)
}

func TestOnChangedSelectionMigrates(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 80, "battery-full")
	f.set("/bat1", device.KindBattery, 60, "battery-good")
	f.router.OnAdded("/bat0")
	f.router.OnAdded("/bat1")

	f.set("/bat1", device.KindBattery, 95, "battery-full-charging")
	f.router.OnChanged("/bat1")

	id, _ := f.router.Selected()
	assert.Equal(t, "/bat1", id)
	assert.Equal(t, "battery-full-charging-symbolic", f.tray.last())
}

func TestOnChangedNonSelectedLeavesTray(t *testing.T) {
	f := newFixture()
	f.set("/ups0", device.KindUPS, 85, "ups-good")
	f.set("/bat0", device.KindBattery, 40, "battery-low")
	f.router.OnAdded("/ups0")
	f.router.OnAdded("/bat0")

	f.set("/bat0", device.KindBattery, 30, "battery-caution")
	f.router.OnChanged("/bat0")

	assert.Equal(t, []string{"ups-good-symbolic"}, f.tray.icons)
}

func TestOnChangedUpdatesOpenView(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")
	f.router.OnAdded("/bat0")
	f.router.OpenView()

	f.source.states["/bat0"] = device.State{
		Kind:        device.KindBattery,
		Percentage:  39,
		IconName:    "battery-low",
		Description: "discharging",
	}
	f.router.OnChanged("/bat0")

	el := f.view.byID("/bat0")
	require.NotNil(t, el)
	assert.Equal(t, "battery-low", el.icon, "detail view uses the full-colour icon")
	assert.Equal(t, "discharging", el.description)
}

func TestOnChangedUnknownIsIgnored(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")

	assert.NotPanics(t, func() { f.router.OnChanged("/bat0") })
	assert.Equal(t, 0, f.router.Registry().Len())
	assert.Empty(t, f.tray.icons)
}

func TestOnRemovedRevokesAndMigrates(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")
	f.set("/ups0", device.KindUPS, 85, "ups-good")
	f.set("/ac", device.KindLinePower, 0, "ac-adapter")
	for _, id := range []string{"/bat0", "/ups0", "/ac"} {
		f.router.OnAdded(id)
	}

	f.router.OnRemoved("/ups0")

	assert.Equal(t, 0, f.source.live["/ups0"])
	id, ok := f.router.Selected()
	require.True(t, ok)
	assert.Equal(t, "/bat0", id)
	assert.Equal(t, "battery-good-symbolic", f.tray.last())

	f.router.OnRemoved("/bat0")
	_, ok = f.router.Selected()
	assert.False(t, ok)
	assert.Equal(t, "battery-full-charged-symbolic", f.tray.last())
}

func TestOnRemovedDetachesViewFirst(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "battery-good")
	f.router.OnAdded("/bat0")
	f.router.OpenView()
	require.NotNil(t, f.view.byID("/bat0"))

	f.router.OnRemoved("/bat0")

	assert.Nil(t, f.view.byID("/bat0"))
	assert.Len(t, f.view.detached, 1)
	assert.Equal(t, 0, f.router.Registry().Len())
}

func TestOnRemovedUnknownIsIgnored(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")
	f.router.OnAdded("/bat0")

	f.router.OnRemoved("/nope")

	assert.Equal(t, 1, f.router.Registry().Len())
}

func TestOpenViewSkipsLinePowerAndHint(t *testing.T) {
	f := newFixture()
	f.router.SetHint("/display")
	f.set("/display", device.KindBattery, 50, "battery-good")
	f.set("/bat0", device.KindBattery, 50, "battery-good")
	f.set("/ac", device.KindLinePower, 0, "ac-adapter")
	for _, id := range []string{"/display", "/bat0", "/ac"} {
		f.router.OnAdded(id)
	}

	f.router.OpenView()

	assert.Len(t, f.view.elements, 1)
	assert.NotNil(t, f.view.byID("/bat0"))
	id, _ := f.router.Selected()
	assert.Equal(t, "/display", id)
}

func TestOnAddedWhileViewOpenAttaches(t *testing.T) {
	f := newFixture()
	f.router.OpenView()
	f.set("/mouse", device.KindOther, 70, "input-mouse")

	f.router.OnAdded("/mouse")

	el := f.view.byID("/mouse")
	require.NotNil(t, el)
	assert.Equal(t, "input-mouse", el.icon)
	assert.Equal(t, "<b>/mouse</b>", el.description)
}

func TestCloseViewKeepsDevicesLive(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")
	f.router.OnAdded("/bat0")
	f.router.OpenView()

	f.router.CloseView()

	assert.Empty(t, f.view.elements)
	assert.False(t, f.router.ViewOpen())
	assert.Equal(t, 1, f.source.live["/bat0"])
	rec, _ := f.router.Registry().Lookup("/bat0")
	_, hasView := rec.View()
	assert.False(t, hasView)

	f.router.OpenView()
	assert.NotNil(t, f.view.byID("/bat0"), "reopening attaches again")
}

func TestViewDestroyedClearsReference(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")
	f.router.OnAdded("/bat0")
	f.router.OpenView()

	rec, _ := f.router.Registry().Lookup("/bat0")
	ref, ok := rec.View()
	require.True(t, ok)
	delete(f.view.elements, ref)

	f.router.ViewDestroyed(ref)

	_, ok = rec.View()
	assert.False(t, ok)
	assert.NotPanics(t, func() { f.router.OnChanged("/bat0") }, "no update to a destroyed element")
}

func TestShutdownRevokesEverything(t *testing.T) {
	f := newFixture()
	f.set("/bat0", device.KindBattery, 40, "")
	f.set("/ups0", device.KindUPS, 40, "")
	f.router.OnAdded("/bat0")
	f.router.OnAdded("/ups0")
	f.router.OpenView()

	f.router.Shutdown()

	assert.Equal(t, 0, f.router.Registry().Len())
	assert.Equal(t, 0, f.source.live["/bat0"])
	assert.Equal(t, 0, f.source.live["/ups0"])
	assert.Empty(t, f.view.elements)
}

func TestWithPolicyFallback(t *testing.T) {
	source := newFakeSource()
	tray := &fakeTray{}
	r := New(device.NewRegistry(), source, tray, WithPolicy(icon.NewPolicy("battery-missing")))
	source.states["/bat0"] = device.State{Kind: device.KindBattery, Percentage: 5}

	r.OnAdded("/bat0")

	assert.Equal(t, "battery-missing-symbolic", r.TrayIcon())
}

func TestRefreshTrayEmptyRegistryShowsDefault(t *testing.T) {
	f := newFixture()

	f.router.RefreshTray()
	f.router.RefreshTray()

	assert.Equal(t, []string{"battery-full-charged-symbolic"}, f.tray.icons)
	assert.Equal(t, "battery-full-charged-symbolic", f.router.TrayIcon())
}
