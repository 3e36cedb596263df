package popup

import (
	"strings"
	"testing"

	"codeberg.org/mutker/batterypanel/internal/brightness"
	"codeberg.org/mutker/batterypanel/internal/device"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	requests  []bool
	destroyed []device.ViewRef
}

func (c *fakeController) SetViewOpen(open bool)            { c.requests = append(c.requests, open) }
func (c *fakeController) ViewDestroyed(ref device.ViewRef) { c.destroyed = append(c.destroyed, ref) }

type fakeLight struct {
	enabled bool
	value   int
	rng     brightness.Range
	nudges  []int
}

func (l *fakeLight) Enabled() bool           { return l.enabled }
func (l *fakeLight) Value() int              { return l.value }
func (l *fakeLight) Range() brightness.Range { return l.rng }
func (l *fakeLight) Nudge(steps int) int {
	l.nudges = append(l.nudges, steps)
	l.value = l.rng.Clamp(l.value + steps*l.rng.Step)
	return l.value
}

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) { s.msgs = append(s.msgs, msg) }

var _ Brightness = (*brightness.Control)(nil)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSinkForwardsToSender(t *testing.T) {
	sink := NewSink()
	sink.SetIcon("dropped")

	sender := &recordingSender{}
	sink.Bind(sender)

	sink.SetIcon("battery-good-symbolic")
	ref := sink.Attach("/bat0")
	sink.Update(ref, "battery-good", "<b>Battery</b>")
	sink.Detach(ref)

	assert.Equal(t, device.ViewRef(1), ref)
	assert.Equal(t, []tea.Msg{
		TrayIconMsg{Name: "battery-good-symbolic"},
		AttachMsg{Ref: 1, ID: "/bat0"},
		UpdateMsg{Ref: 1, Icon: "battery-good", Description: "<b>Battery</b>"},
		DetachMsg{Ref: 1},
	}, sender.msgs)

	assert.Equal(t, device.ViewRef(2), sink.Attach("/bat1"))
}

func TestModelRows(t *testing.T) {
	m := New(&fakeController{}, nil)

	m, _ = update(t, m, AttachMsg{Ref: 1, ID: "/bat0"})
	m, _ = update(t, m, AttachMsg{Ref: 2, ID: "/ups0"})
	m, _ = update(t, m, UpdateMsg{Ref: 2, Icon: "ups", Description: "<b>UPS</b>\nCharging (40%)"})
	require.Len(t, m.rows, 2)
	assert.Equal(t, "ups", m.rows[1].icon)

	m, _ = update(t, m, DetachMsg{Ref: 1})
	require.Len(t, m.rows, 1)
	assert.Equal(t, device.ViewRef(2), m.rows[0].ref)

	m, _ = update(t, m, DetachMsg{Ref: 9})
	assert.Len(t, m.rows, 1)
}

func TestModelToggleKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := New(ctrl, nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.expanded)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.expanded)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.expanded)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.expanded)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.expanded)

	assert.Equal(t, []bool{true, false, true, false}, ctrl.requests, "esc on a closed view sends nothing")
}

func TestModelSliderKeys(t *testing.T) {
	light := &fakeLight{enabled: true, value: 50, rng: brightness.NewRange(100)}
	m := New(&fakeController{}, light)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, _ = update(t, m, runes("l"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	_, _ = update(t, m, runes("h"))

	assert.Equal(t, []int{1, 1, -1, -1}, light.nudges)
	assert.Equal(t, 50, light.value)
}

func TestModelSliderDisabled(t *testing.T) {
	light := &fakeLight{}
	m := New(&fakeController{}, light)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Empty(t, light.nudges)
	assert.Contains(t, m.View(), "unavailable")

	m = New(&fakeController{}, nil)
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Contains(t, m.View(), "unavailable")
}

func TestModelQuitDestroysRows(t *testing.T) {
	ctrl := &fakeController{}
	m := New(ctrl, nil)
	m, _ = update(t, m, AttachMsg{Ref: 3, ID: "/bat0"})
	m, _ = update(t, m, AttachMsg{Ref: 4, ID: "/bat1"})

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, []device.ViewRef{3, 4}, ctrl.destroyed)
}

func TestModelView(t *testing.T) {
	light := &fakeLight{enabled: true, value: 55, rng: brightness.NewRange(100)}
	m := New(&fakeController{}, light)

	m, _ = update(t, m, TrayIconMsg{Name: "battery-good-symbolic"})
	view := m.View()
	assert.Contains(t, view, "battery-good-symbolic")
	assert.Contains(t, view, "Brightness")
	assert.Contains(t, view, "55")
	assert.NotContains(t, view, "Discharging")

	m.expanded = true
	assert.Contains(t, m.View(), "No devices")

	m, _ = update(t, m, AttachMsg{Ref: 1, ID: "/bat0"})
	assert.Contains(t, m.View(), "/bat0")

	m, _ = update(t, m, UpdateMsg{Ref: 1, Icon: "battery-good", Description: "<b>Battery</b>\nACME &lt;Cell&gt;\nDischarging (64%)"})
	view = m.View()
	assert.Contains(t, view, "Battery")
	assert.Contains(t, view, "ACME <Cell>")
	assert.Contains(t, view, "Discharging (64%)")
	assert.NotContains(t, view, "<b>")
}

func TestRenderMarkup(t *testing.T) {
	out := renderMarkup("<b>UPS</b>\nAPC &amp; Co")
	assert.True(t, strings.Contains(out, "UPS"))
	assert.True(t, strings.HasSuffix(out, "\nAPC & Co"))
	assert.NotContains(t, out, "<b>")

	assert.Equal(t, "plain <b>unterminated", renderMarkup("plain <b>unterminated"))
}
