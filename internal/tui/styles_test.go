package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestColorizeStatus(t *testing.T) {
	statuses := []string{
		"Ready",
		"NotReady",
		"Unknown",
		"Ready,SchedulingDisabled",
		"NotReady,SchedulingDisabled",
		"",
	}

	for _, s := range statuses {
		t.Run(s, func(t *testing.T) {
			result := colorizeStatus(s)
			if !strings.Contains(result, s) {
				t.Errorf("colorizeStatus(%q) = %q, lost the status text", s, result)
			}
		})
	}
}

func TestToast_Expire(t *testing.T) {
	var ts toast
	if cmd := ts.show("first", toastInfo, false); cmd == nil {
		t.Fatal("non-sticky toast should schedule expiry")
	}
	first := ts.seq
	ts.show("second", toastError, false)

	ts.expire(first)
	if ts.message != "second" {
		t.Errorf("stale expiry cleared newer toast, message = %q", ts.message)
	}
	ts.expire(ts.seq)
	if ts.isActive() {
		t.Error("toast should be cleared")
	}
}

func TestToast_Sticky(t *testing.T) {
	var ts toast
	if cmd := ts.show("expired", toastError, true); cmd != nil {
		t.Error("sticky toast should not schedule expiry")
	}
	ts.expire(ts.seq)
	if !ts.isActive() {
		t.Error("sticky toast should survive expiry")
	}
	if !strings.Contains(ts.render(), "expired") {
		t.Errorf("render() = %q", ts.render())
	}
}

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		ok   bool
	}{
		{"down", tea.KeyMsg{Type: tea.KeyDown}, true},
		{"vim up", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, true},
		{"shift tab", tea.KeyMsg{Type: tea.KeyShiftTab}, true},
		{"search", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")}, true},
		{"unbound", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("z")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := keyEvent(tt.msg); ok != tt.ok {
				t.Errorf("keyEvent(%q) ok = %v, want %v", tt.msg.String(), ok, tt.ok)
			}
		})
	}
}
