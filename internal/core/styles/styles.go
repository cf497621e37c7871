// Package styles provides shared lipgloss styles for CLI output and the
// watch view.
package styles

import (
	"hash/fnv"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "one-dark"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"one-dark": {
		Primary:    lipgloss.Color("#61afef"),
		Secondary:  lipgloss.Color("#56b6c2"),
		Foreground: lipgloss.Color("#abb2bf"),
		Muted:      lipgloss.Color("#5c6370"),
		Background: lipgloss.Color("#282c34"),
		Surface:    lipgloss.Color("#3e4451"),
		Success:    lipgloss.Color("#98c379"),
		Warning:    lipgloss.Color("#e5c07b"),
		Error:      lipgloss.Color("#e06c75"),
	},
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Background: lipgloss.Color("#282828"),
		Surface:    lipgloss.Color("#3c3836"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Text styles.
var (
	TextPrimaryStyle        lipgloss.Style
	TextPrimaryBoldStyle    lipgloss.Style
	TextForegroundStyle     lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextMutedStyle          lipgloss.Style
	TextSuccessStyle        lipgloss.Style
	TextWarningStyle        lipgloss.Style
	TextErrorStyle          lipgloss.Style
)

// Launchpad styles.
var (
	HeaderStyle       lipgloss.Style
	GroupHeaderStyle  lipgloss.Style
	ActionStyle       lipgloss.Style
	ActionHiddenStyle lipgloss.Style
	CommandStyle      lipgloss.Style
	TypeBadgeStyle    lipgloss.Style
	StatusBarStyle    lipgloss.Style
	TodoDoneStyle     lipgloss.Style
	TodoOpenStyle     lipgloss.Style
	DividerStyle      lipgloss.Style
	PanelStyle        lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	TextPrimaryStyle = lipgloss.NewStyle().Foreground(p.Primary)
	TextPrimaryBoldStyle = TextPrimaryStyle.Bold(true)
	TextForegroundStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	TextForegroundBoldStyle = TextForegroundStyle.Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	TextSuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	TextWarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	TextErrorStyle = lipgloss.NewStyle().Foreground(p.Error)

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true).
		MarginBottom(1)
	GroupHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Bold(true)
	ActionStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	ActionHiddenStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	TypeBadgeStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Secondary).
		Padding(0, 1)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	TodoDoneStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Strikethrough(true)
	TodoOpenStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Surface)
	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
}

// GroupStyle renders a group header in the group's own color, falling back
// to a deterministic palette color for uncolored groups.
func GroupStyle(name, hex string) lipgloss.Style {
	if hex != "" {
		return GroupHeaderStyle.Foreground(lipgloss.Color(hex))
	}
	return GroupHeaderStyle.Foreground(ColorForString(name))
}

// ColorForString returns a deterministic color for a given string.
// The same string always produces the same color.
func ColorForString(s string) lipgloss.Color {
	pool := []lipgloss.Color{
		CurrentPalette.Primary,
		CurrentPalette.Secondary,
		CurrentPalette.Success,
		CurrentPalette.Warning,
		CurrentPalette.Error,
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return pool[h.Sum32()%uint32(len(pool))]
}

// FormTheme returns a huh theme matching the active palette.
func FormTheme() *huh.Theme {
	t := huh.ThemeBase()
	p := CurrentPalette

	t.Focused.Title = t.Focused.Title.Foreground(p.Primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(p.Muted)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(p.Primary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(p.Success)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(p.Foreground)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(p.Error)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(p.Primary)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(p.Muted)
	t.Blurred = t.Focused
	t.Blurred.Title = t.Blurred.Title.Foreground(p.Muted).Bold(false)

	return t
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
