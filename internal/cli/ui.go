package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depsync/pkg/reconcile"
)

// Color palette shared by all terminal output.
var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	stylePkgName = lipgloss.NewStyle().Foreground(colorWhite)
	styleVersion = lipgloss.NewStyle().Foreground(colorCyan)
	styleOldVer  = lipgloss.NewStyle().Foreground(colorGray).Strikethrough(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconBranch  = "├─"
	iconLast    = "└─"
)

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// sortedKeys returns the map keys in lexical order so rendered trees are
// stable between runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// renderVersions renders a name→version mapping as an indented tree.
// The emptyLabel line is shown when the mapping has no entries.
func renderVersions(title string, entries map[string]string, emptyLabel string) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString("  " + StyleDim.Render(emptyLabel) + "\n")
		return b.String()
	}

	keys := sortedKeys(entries)
	for i, name := range keys {
		branch := iconBranch
		if i == len(keys)-1 {
			branch = iconLast
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			StyleDim.Render(branch),
			stylePkgName.Render(name),
			styleVersion.Render(entries[name])))
	}
	return b.String()
}

// renderUpdates renders the updated bucket with old and new versions.
func renderUpdates(title string, updates map[string]reconcile.Change) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	if len(updates) == 0 {
		b.WriteString("  " + StyleDim.Render("everything is current") + "\n")
		return b.String()
	}

	keys := sortedKeys(updates)
	for i, name := range keys {
		branch := iconBranch
		if i == len(keys)-1 {
			branch = iconLast
		}
		change := updates[name]
		b.WriteString(fmt.Sprintf("  %s %s %s %s %s\n",
			StyleDim.Render(branch),
			stylePkgName.Render(name),
			styleOldVer.Render(change.Declared),
			StyleDim.Render(iconArrow),
			styleVersion.Render(change.Resolved)))
	}
	return b.String()
}

// renderModules renders a flat sorted module list, one per line.
func renderModules(names []string) string {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(stylePkgName.Render(name))
		b.WriteString("\n")
	}
	return b.String()
}
