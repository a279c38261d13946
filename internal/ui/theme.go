// Package ui styles the terminal output of the slnpd CLI.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme is a color scheme. Colors are ANSI 256 codes; an empty color leaves
// the text unstyled.
type Theme struct {
	Name    string
	Primary string // titles, keys
	Success string // 600/250 lines, check marks
	Warning string
	Error   string // 5xx lines
	Muted   string
	Value   string
	Param   string // 601/603 parameter lines
	Group   string // 604/605 group delimiters
	Command string
	CmdBg   string
}

var themes = []Theme{
	{
		Name:    "default",
		Primary: "39",
		Success: "42",
		Warning: "214",
		Error:   "196",
		Muted:   "243",
		Value:   "252",
		Param:   "252",
		Group:   "109",
		Command: "229",
		CmdBg:   "236",
	},
	{
		Name:    "dracula",
		Primary: "141",
		Success: "84",
		Warning: "228",
		Error:   "212",
		Muted:   "239",
		Value:   "253",
		Param:   "253",
		Group:   "117",
		Command: "117",
		CmdBg:   "236",
	},
	{
		Name:    "nord",
		Primary: "109",
		Success: "150",
		Warning: "221",
		Error:   "203",
		Muted:   "243",
		Value:   "252",
		Param:   "252",
		Group:   "110",
		Command: "116",
		CmdBg:   "236",
	},
	// Bold and padding only, for terminals with poor color support.
	{Name: "plain"},
}

type styleSet struct {
	title, subtle, success, warning, failure lipgloss.Style
	key, value, command, param, group        lipgloss.Style
}

var (
	currentTheme Theme
	active       styleSet
)

func init() {
	SetTheme(themes[0])
}

func fg(color string) lipgloss.Style {
	s := lipgloss.NewStyle()
	if color != "" {
		s = s.Foreground(lipgloss.Color(color))
	}
	return s
}

// SetTheme switches all styles to theme.
func SetTheme(theme Theme) {
	currentTheme = theme

	command := fg(theme.Command).Padding(0, 1)
	if theme.CmdBg != "" {
		command = command.Background(lipgloss.Color(theme.CmdBg))
	}
	active = styleSet{
		title:   fg(theme.Primary).Bold(true),
		subtle:  fg(theme.Muted),
		success: fg(theme.Success),
		warning: fg(theme.Warning),
		failure: fg(theme.Error).Bold(true),
		key:     fg(theme.Primary).Bold(true),
		value:   fg(theme.Value),
		command: command,
		param:   fg(theme.Param),
		group:   fg(theme.Group),
	}
}

// GetTheme returns the active theme.
func GetTheme() Theme {
	return currentTheme
}

// ThemeByName returns the named theme, or the default one.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

// ListThemes returns the theme names, default first.
func ListThemes() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func styled(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

func Title(s string) string   { return styled(active.title, s) }
func Subtle(s string) string  { return styled(active.subtle, s) }
func Success(s string) string { return styled(active.success, s) }
func Warning(s string) string { return styled(active.warning, s) }
func Error(s string) string   { return styled(active.failure, s) }
func Key(s string) string     { return styled(active.key, s) }
func Value(s string) string   { return styled(active.value, s) }

// Command renders a shell command with a background.
func Command(s string) string { return styled(active.command, s) }

// Code styles an SLNP response line by its status code.
func Code(line string) string {
	code, _, _ := strings.Cut(line, " ")
	switch {
	case code == "600", code == "250":
		return styled(active.success, line)
	case code == "601", code == "603":
		return styled(active.param, line)
	case code == "604", code == "605":
		return styled(active.group, line)
	case len(code) == 3 && code[0] == '5':
		return styled(active.failure, line)
	default:
		return line
	}
}
