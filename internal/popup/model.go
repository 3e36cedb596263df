// Package popup is the terminal front end of the panel: a header with
// the tray icon, the detail view of power devices and the brightness
// slider.
package popup

import (
	"fmt"
	"html"
	"strings"

	"codeberg.org/mutker/batterypanel/internal/brightness"
	"codeberg.org/mutker/batterypanel/internal/device"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 20

// Controller receives the popup's view commands. Calls must not block
// and must apply in call order, since Update makes them directly.
type Controller interface {
	SetViewOpen(open bool)
	ViewDestroyed(ref device.ViewRef)
}

// Brightness is the slider backing. *brightness.Control implements it.
type Brightness interface {
	Enabled() bool
	Value() int
	Range() brightness.Range
	Nudge(steps int) int
}

type row struct {
	ref         device.ViewRef
	id          string
	icon        string
	description string
}

// Model is the popup's bubbletea model.
type Model struct {
	ctrl  Controller
	light Brightness
	keys  keyMap

	tray     string
	expanded bool
	rows     []row
	width    int
}

// New creates the popup model. light may be nil when there is no
// backlight to control.
func New(ctrl Controller, light Brightness) Model {
	return Model{
		ctrl:  ctrl,
		light: light,
		keys:  defaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("Power")
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case TrayIconMsg:
		m.tray = msg.Name

	case AttachMsg:
		m.rows = append(m.rows, row{ref: msg.Ref, id: msg.ID})

	case UpdateMsg:
		for i := range m.rows {
			if m.rows[i].ref == msg.Ref {
				m.rows[i].icon = msg.Icon
				m.rows[i].description = msg.Description
				break
			}
		}

	case DetachMsg:
		for i := range m.rows {
			if m.rows[i].ref == msg.Ref {
				m.rows = append(m.rows[:i:i], m.rows[i+1:]...)
				break
			}
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.destroyRows()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		m.expanded = !m.expanded
		m.ctrl.SetViewOpen(m.expanded)

	case key.Matches(msg, m.keys.Close):
		if m.expanded {
			m.expanded = false
			m.ctrl.SetViewOpen(false)
		}

	case key.Matches(msg, m.keys.Dimmer):
		m.nudge(-1)

	case key.Matches(msg, m.keys.Bright):
		m.nudge(1)
	}

	return m, nil
}

func (m Model) nudge(steps int) {
	if m.light == nil || !m.light.Enabled() {
		return
	}
	m.light.Nudge(steps)
}

// destroyRows reports every row as torn down by the UI.
func (m Model) destroyRows() {
	for _, r := range m.rows {
		m.ctrl.ViewDestroyed(r.ref)
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styleHeader.Render("Power"))
	if m.tray != "" {
		b.WriteString(styleIcon.Render(m.tray))
	}
	b.WriteString("\n")

	if m.expanded {
		b.WriteString(m.renderDevices())
		b.WriteString("\n")
	}

	b.WriteString(m.renderSlider())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderDevices() string {
	if len(m.rows) == 0 {
		return styleDevices.Render(styleMuted.Render("No devices"))
	}

	items := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		desc := renderMarkup(r.description)
		if desc == "" {
			desc = styleMuted.Render(r.id)
		}
		if r.icon != "" {
			desc = lipgloss.JoinHorizontal(lipgloss.Top, styleIcon.Render(r.icon)+"  ", desc)
		}
		items = append(items, desc)
	}

	style := styleDevices
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}

	return style.Render(strings.Join(items, "\n\n"))
}

func (m Model) renderSlider() string {
	label := "Brightness "
	if m.light == nil || !m.light.Enabled() {
		return label + styleMuted.Render("unavailable")
	}

	rng := m.light.Range()
	span := rng.Max - rng.Min
	filled := barWidth
	if span > 0 {
		filled = (m.light.Value() - rng.Min) * barWidth / span
	}
	filled = max(0, min(barWidth, filled))

	bar := styleBarFilled.Render(strings.Repeat("█", filled)) +
		styleBarEmpty.Render(strings.Repeat("─", barWidth-filled))

	return fmt.Sprintf("%s%s %d", label, bar, m.light.Value())
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.bindings()))
	for _, k := range m.keys.bindings() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return styleHelp.Render(strings.Join(parts, " • "))
}

// renderMarkup renders the bold spans of a device description and
// unescapes the rest.
func renderMarkup(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "<b>")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "</b>")
		if end < 0 {
			break
		}
		b.WriteString(html.UnescapeString(s[:start]))
		b.WriteString(styleBold.Render(html.UnescapeString(s[start+3 : start+end])))
		s = s[start+end+4:]
	}
	b.WriteString(html.UnescapeString(s))

	return b.String()
}
