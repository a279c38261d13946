package ui

import "strings"

const bannerText = `
 ___| |_ __  _ __   __| |
/ __| | '_ \| '_ \ / _' |
\__ \ | | | | |_) | (_| |
|___/_|_| |_| .__/ \__,_|
            |_|
`

// Banner returns the program banner for help output. Plain text when stdout
// is not a terminal.
func Banner() string {
	text := strings.Trim(bannerText, "\n")
	if !IsTTY() {
		return text + "\n\n"
	}
	lines := strings.Split(text, "\n")
	shades := []string{currentTheme.Primary, currentTheme.Command, currentTheme.Success}
	for i, line := range lines {
		lines[i] = fg(shades[i%len(shades)]).Render(line)
	}
	return strings.Join(lines, "\n") + "\n\n"
}
