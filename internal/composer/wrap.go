package composer

import "strings"

// Wrap splits text into lines of at most width characters, breaking on
// whitespace and splitting words that are longer than a whole line.
// Runs of whitespace collapse to a single space.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	var line []rune

	flush := func() {
		if len(line) > 0 {
			lines = append(lines, string(line))
			line = line[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)

		if len(line) > 0 && len(line)+1+len(w) <= width {
			line = append(line, ' ')
			line = append(line, w...)
			continue
		}

		if len(line) > 0 && len(w) <= width {
			flush()
			line = append(line, w...)
			continue
		}

		// word does not fit on any line: fill the current line, then chunk
		for len(w) > 0 {
			room := width
			if len(line) > 0 {
				room = width - len(line) - 1
				if room <= 0 {
					flush()
					continue
				}
				line = append(line, ' ')
			}
			n := min(room, len(w))
			line = append(line, w[:n]...)
			w = w[n:]
			if len(w) > 0 {
				flush()
			}
		}
	}
	flush()

	return lines
}
