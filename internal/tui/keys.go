package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Taishi66/kview/internal/interaction"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Space    key.Binding
	Enter    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Escape   key.Binding
	Search   key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Left:     key.NewBinding(key.WithKeys("h", "left")),
	Right:    key.NewBinding(key.WithKeys("l", "right")),
	Space:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next region")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "previous region")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Search:   key.NewBinding(key.WithKeys("/", "alt+f"), key.WithHelp("/", "search")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// keyEvent maps a terminal key to the event routed by interaction.State.
func keyEvent(msg tea.KeyMsg) (interaction.KeyEvent, bool) {
	switch {
	case key.Matches(msg, keys.Up):
		return interaction.KeyUp, true
	case key.Matches(msg, keys.Down):
		return interaction.KeyDown, true
	case key.Matches(msg, keys.Left):
		return interaction.KeyLeft, true
	case key.Matches(msg, keys.Right):
		return interaction.KeyRight, true
	case key.Matches(msg, keys.Space):
		return interaction.KeySpace, true
	case key.Matches(msg, keys.Enter):
		return interaction.KeyEnter, true
	case key.Matches(msg, keys.Tab):
		return interaction.KeyTab, true
	case key.Matches(msg, keys.ShiftTab):
		return interaction.KeyShiftTab, true
	case key.Matches(msg, keys.Escape):
		return interaction.KeyEscape, true
	case key.Matches(msg, keys.Search):
		return interaction.KeyOptionF, true
	}
	return 0, false
}

func helpKeys(b ...key.Binding) string {
	out := ""
	for i, k := range b {
		if i > 0 {
			out += "  "
		}
		h := k.Help()
		out += h.Key + " " + h.Desc
	}
	return out
}
