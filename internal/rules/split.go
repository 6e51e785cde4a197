package rules

import (
	"strings"
)

// Separators in priority order. A chunk is cut after the highest-priority
// separator found in the back half of the window; otherwise it is cut hard.
var separators = []string{"\n\n", "\n", "。", "！", "？", "；", ". ", "! ", "? ", "，", ", ", " "}

// Split cuts text into chunks of at most size runes. Consecutive chunks
// share up to overlap runes.
//
// Precondition: size > 0 and 0 <= overlap < size.
// Postcondition: every chunk is non-empty and at most size runes long.
func Split(text string, size, overlap int) []string {
	r := []rune(strings.TrimSpace(text))
	if len(r) == 0 {
		return nil
	}
	if len(r) <= size {
		return []string{string(r)}
	}

	var chunks []string
	start := 0
	for start < len(r) {
		end := min(start+size, len(r))
		if end < len(r) {
			if cut := breakPoint(r[start:end]); cut > 0 {
				end = start + cut
			}
		}
		if chunk := strings.TrimSpace(string(r[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(r) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// breakPoint returns the rune offset just past the best separator in the
// back half of w, or 0 when there is none.
func breakPoint(w []rune) int {
	s := string(w)
	for _, sep := range separators {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			continue
		}
		if cut := len([]rune(s[:i+len(sep)])); cut > len(w)/2 {
			return cut
		}
	}
	return 0
}
