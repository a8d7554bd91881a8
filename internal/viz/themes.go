package viz

import "github.com/charmbracelet/lipgloss"

// Theme is a colour scheme for the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "deep-space",
		Primary: lipgloss.Color("#7fd4ff"),
		Accent:  lipgloss.Color("#ffd75f"),
		Text:    lipgloss.Color("#e4e4f0"),
		Muted:   lipgloss.Color("#6c6c8a"),
		Border:  lipgloss.Color("#3a3a5a"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff5f5f"),
	},
	{
		Name:    "phosphor",
		Primary: lipgloss.Color("#00ff66"),
		Accent:  lipgloss.Color("#aaffaa"),
		Text:    lipgloss.Color("#00dd55"),
		Muted:   lipgloss.Color("#006622"),
		Border:  lipgloss.Color("#004411"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff3333"),
	},
	{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#dddddd"),
		Muted:   lipgloss.Color("#888888"),
		Border:  lipgloss.Color("#444444"),
		Warning: lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "sunset",
		Primary: lipgloss.Color("#ff9f6b"),
		Accent:  lipgloss.Color("#feca57"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Border:  lipgloss.Color("#4d2b4e"),
		Warning: lipgloss.Color("#ffc048"),
		Error:   lipgloss.Color("#ff4757"),
	},
}

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
