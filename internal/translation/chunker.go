package translation

// Chunk splits text into ordered segments of at most maxSize runes each.
// Boundaries prefer the rightmost sentence terminator (".", "?", "!"
// followed by a space or newline) inside the window, then the rightmost
// space, then a hard cut at the window edge. The chosen boundary rune is
// included in the emitted chunk, so the offset advances by at least one
// rune per iteration and the loop always terminates.
func Chunk(text string, maxSize int) []string {
	if maxSize < 1 {
		maxSize = 1
	}

	runes := []rune(text)
	if len(runes) <= maxSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/maxSize+1)
	start := 0
	for start < len(runes) {
		if start+maxSize >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end := start + maxSize
		boundary := lastSentenceEnd(runes, start, end)
		if boundary < 0 {
			boundary = lastSpace(runes, start, end)
		}
		if boundary < 0 {
			boundary = end - 1
		}

		chunks = append(chunks, string(runes[start:boundary+1]))
		start = boundary + 1
	}

	return chunks
}

// lastSentenceEnd returns the index of the rightmost sentence terminator in
// runes[start:end] whose following rune is a space or newline, or -1. The
// follower must also lie inside the window.
func lastSentenceEnd(runes []rune, start, end int) int {
	for i := end - 2; i >= start; i-- {
		switch runes[i] {
		case '.', '?', '!':
			if runes[i+1] == ' ' || runes[i+1] == '\n' {
				return i
			}
		}
	}
	return -1
}

func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}
