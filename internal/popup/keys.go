package popup

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle key.Binding
	Close  key.Binding
	Dimmer key.Binding
	Bright key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "devices"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Dimmer: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "dimmer"),
		),
		Bright: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "brighter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Toggle, k.Close, k.Dimmer, k.Bright, k.Quit}
}
