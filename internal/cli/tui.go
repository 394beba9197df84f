package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depsync/pkg/reconcile"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// updateItem is one reviewable version bump.
type updateItem struct {
	name    string
	change  reconcile.Change
	checked bool
}

// UpdateModel is the bubbletea model for the interactive update review.
// Every bump starts checked; the user unchecks the ones to skip.
type UpdateModel struct {
	items    []updateItem
	cursor   int
	accepted bool
}

// NewUpdateModel creates the review model from the updated bucket.
func NewUpdateModel(updates map[string]reconcile.Change) UpdateModel {
	items := make([]updateItem, 0, len(updates))
	for _, name := range sortedKeys(updates) {
		items = append(items, updateItem{name: name, change: updates[name], checked: true})
	}
	return UpdateModel{items: items}
}

func (m UpdateModel) Init() tea.Cmd {
	return nil
}

func (m UpdateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		m.items[m.cursor].checked = !m.items[m.cursor].checked
	case "a":
		all := !m.allChecked()
		for i := range m.items {
			m.items[i].checked = all
		}
	case "enter":
		m.accepted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m UpdateModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review version bumps"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ apply  q cancel"))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		nameStyle := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			nameStyle = listSelectedStyle
		}

		box := "[ ]"
		if item.checked {
			box = "[x]"
		}

		b.WriteString(fmt.Sprintf("%s%s %s %s %s %s\n",
			cursor,
			StyleDim.Render(box),
			nameStyle.Render(item.name),
			styleOldVer.Render(item.change.Declared),
			StyleDim.Render(iconArrow),
			styleVersion.Render(item.change.Resolved)))
	}
	return b.String()
}

func (m UpdateModel) allChecked() bool {
	for _, item := range m.items {
		if !item.checked {
			return false
		}
	}
	return true
}

// Selected returns the checked bumps as a name→resolved-version mapping.
func (m UpdateModel) Selected() map[string]string {
	chosen := make(map[string]string)
	for _, item := range m.items {
		if item.checked {
			chosen[item.name] = item.change.Resolved
		}
	}
	return chosen
}

// reviewUpdates runs the interactive checklist and returns the bumps to
// apply. accepted is false when the user cancelled the review.
func reviewUpdates(updates map[string]reconcile.Change) (chosen map[string]string, accepted bool, err error) {
	final, err := tea.NewProgram(NewUpdateModel(updates)).Run()
	if err != nil {
		return nil, false, err
	}
	m := final.(UpdateModel)
	if !m.accepted {
		return nil, false, nil
	}
	return m.Selected(), true, nil
}
