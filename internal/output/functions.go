package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var byteUnits = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei", "Zi"}

// FormatBytes renders n with binary prefixes and two decimals, e.g. "1.50MiB".
func FormatBytes(n int64) string {
	num := float64(n)
	for _, unit := range byteUnits {
		if num < 1024 && num > -1024 {
			return fmt.Sprintf("%.2f%sB", num, unit)
		}
		num /= 1024
	}
	return fmt.Sprintf("%.2fYiB", num)
}

// ProgressLine renders one status line:
//
//	[#####-----] Downloaded 1.00MiB of 2.00MiB (50.00%) T
//
// A total <= 0 is unknown and renders as "?" with a "??.??" percentage.
// A barSize below 1 fits the bar to the terminal width.
func ProgressLine(done, total int64, barSize int, marker string) string {
	totalStr := "?"
	percentStr := "??.??"
	var fraction float64
	if total > 0 {
		fraction = float64(done) / float64(total)
		totalStr = FormatBytes(total)
		percentStr = fmt.Sprintf("%.2f", fraction*100)
	}
	text := fmt.Sprintf(" Downloaded %s of %s (%s%%)", FormatBytes(done), totalStr, percentStr)
	if marker != "" {
		text += " " + marker
	}
	if barSize < 1 {
		barSize = max(1, TerminalWidth()-len(text)-3)
	}
	filled := 0
	if total > 0 {
		filled = max(0, min(int(fraction*float64(barSize)), barSize))
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barSize-filled) + "]" + text
}

func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func getTerminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24
	}
	return height
}
