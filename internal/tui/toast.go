package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastTTL = 4 * time.Second

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastSuccess
	toastError
)

// toast is a transient status line. seq ties an expiry tick to the toast it
// was scheduled for, so a newer toast is not cleared early.
type toast struct {
	seq     int
	message string
	level   toastLevel
	sticky  bool
}

type toastExpiredMsg struct{ seq int }

func (t toast) isActive() bool {
	return t.message != ""
}

func (t toast) render() string {
	if !t.isActive() {
		return ""
	}
	switch t.level {
	case toastSuccess:
		return toastSuccessStyle.Render(t.message)
	case toastError:
		return toastErrorStyle.Render(t.message)
	default:
		return t.message
	}
}

// show replaces the current toast. Sticky toasts stay until replaced.
func (t *toast) show(msg string, level toastLevel, sticky bool) tea.Cmd {
	t.seq++
	t.message = msg
	t.level = level
	t.sticky = sticky
	if sticky {
		return nil
	}
	seq := t.seq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (t *toast) expire(seq int) {
	if seq == t.seq && !t.sticky {
		t.message = ""
	}
}
