package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/depsync/pkg/reconcile"
)

func testUpdates() map[string]reconcile.Change {
	return map[string]reconcile.Change{
		"express": {Declared: "^4.0.0", Resolved: "4.18.2"},
		"react":   {Declared: "^17.0.0", Resolved: "18.2.0"},
	}
}

func keyPress(m UpdateModel, key string) UpdateModel {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(UpdateModel)
}

func TestUpdateModelDefaultsAllChecked(t *testing.T) {
	m := NewUpdateModel(testUpdates())
	if got := m.Selected(); len(got) != 2 {
		t.Errorf("Selected() = %v, want all bumps checked initially", got)
	}
}

func TestUpdateModelToggle(t *testing.T) {
	m := NewUpdateModel(testUpdates())

	// Items are sorted, cursor starts on express.
	m = keyPress(m, " ")
	selected := m.Selected()
	if _, ok := selected["express"]; ok {
		t.Errorf("Selected() = %v, express should be unchecked", selected)
	}
	if selected["react"] != "18.2.0" {
		t.Errorf("Selected() = %v, react should stay checked", selected)
	}

	m = keyPress(m, " ")
	if len(m.Selected()) != 2 {
		t.Error("second toggle should re-check express")
	}
}

func TestUpdateModelCursorAndToggleAll(t *testing.T) {
	m := NewUpdateModel(testUpdates())

	m = keyPress(m, "j")
	m = keyPress(m, " ")
	if _, ok := m.Selected()["react"]; ok {
		t.Error("cursor should have moved to react before toggling")
	}

	m = keyPress(m, "a")
	if len(m.Selected()) != 2 {
		t.Error("a should check everything when any item is unchecked")
	}
	m = keyPress(m, "a")
	if len(m.Selected()) != 0 {
		t.Error("a should uncheck everything when all are checked")
	}
}

func TestUpdateModelAcceptAndCancel(t *testing.T) {
	m := NewUpdateModel(testUpdates())
	m = keyPress(m, "enter")
	if !m.accepted {
		t.Error("enter should accept the review")
	}

	cancelled := NewUpdateModel(testUpdates())
	cancelled = keyPress(cancelled, "esc")
	if cancelled.accepted {
		t.Error("esc must not accept the review")
	}
}

func TestUpdateModelView(t *testing.T) {
	view := NewUpdateModel(testUpdates()).View()
	for _, want := range []string{"express", "react", "[x]", "18.2.0"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
