package cmd

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// padToWidth pads or truncates text to a fixed display width, measured in
// terminal columns. Text that is too long ends in "...". A width <= 0
// returns text unchanged.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."

	current := runewidth.StringWidth(text)
	if current > width {
		if width <= runewidth.StringWidth(ellipsis) {
			return runewidth.Truncate(ellipsis, width, "")
		}
		text = runewidth.Truncate(text, width-runewidth.StringWidth(ellipsis), "") + ellipsis
		current = runewidth.StringWidth(text)
		// Wide runes can leave the truncated text a column short
		if current > width {
			return runewidth.Truncate(text, width, "")
		}
	}

	if current < width {
		return text + strings.Repeat(" ", width-current)
	}
	return text
}
