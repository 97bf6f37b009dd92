package bdl

import "strings"

// noiseMarkers are whole lines the exporting tool interleaves with the
// block text. They carry no data.
var noiseMarkers = map[string]bool{
	"MARCOS":           true,
	"HUECOS":           true,
	"PUENTES TERMICOS": true,
}

// sanitize blanks out noise lines and splits off the tool-specific
// preamble that precedes the GENERAL-DATA block. Removed lines are
// replaced by empty lines so positions reported by the lexer still match
// the original text.
func sanitize(src string) (body, preamble string) {
	lines := strings.Split(src, "\n")

	if i := generalDataLine(lines); i > 0 {
		preamble = strings.Join(lines[:i], "\n")
		for j := 0; j < i; j++ {
			lines[j] = ""
		}
	}

	for i, line := range lines {
		line = strings.ReplaceAll(line, "ÿ", "")
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "+"),
			strings.HasPrefix(trimmed, "TEMPLARY"),
			noiseMarkers[trimmed]:
			line = ""
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n"), preamble
}

// generalDataLine returns the index of the `"..." = GENERAL-DATA` header
// line, or -1.
func generalDataLine(lines []string) int {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, `"`) {
			continue
		}
		_, rest, ok := strings.Cut(trimmed[1:], `"`)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "=") {
			continue
		}
		if strings.TrimSpace(rest[1:]) == "GENERAL-DATA" {
			return i
		}
	}
	return -1
}
