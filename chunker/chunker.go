// Package chunker splits raw document text into overlapping windows
// suitable for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	StrategyWords     = "words"
	StrategyRecursive = "recursive"
)

// Split dispatches to the configured strategy. Unknown strategies fall
// back to word windows.
func Split(strategy, text string, size, overlap int) []string {
	if strategy == StrategyRecursive {
		return SplitRecursive(text, size, overlap)
	}
	return SplitWords(text, size, overlap)
}

// SplitWords splits text on whitespace and emits windows of up to size
// words, starting a new window every size-overlap words. Windows that
// are empty after trimming are dropped. A non-positive step produces
// no chunks.
func SplitWords(text string, size, overlap int) []string {
	step := size - overlap
	if step <= 0 || size <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks
}

// separators ordered largest first; the empty string means a hard
// character split.
var separators = []string{"\n\n", "\n", " ", ""}

// SplitRecursive splits text into chunks of at most size characters,
// preferring paragraph breaks over line breaks over spaces over raw
// character boundaries, with overlap characters of repeated context
// between consecutive chunks.
func SplitRecursive(text string, size, overlap int) []string {
	if size <= 0 || overlap >= size {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := splitBySeparators(text, size, separators)

	// Merge small pieces back together up to size, carrying overlap
	// forward between consecutive chunks.
	var chunks []string
	var cur string
	for _, p := range pieces {
		if cur != "" && len(cur)+len(p) > size {
			if chunk := strings.TrimSpace(cur); chunk != "" {
				chunks = append(chunks, chunk)
			}
			cur = overlapTail(cur, overlap)
			// The carried tail plus the next piece must still fit
			// the budget.
			if len(cur)+len(p) > size {
				cur = overlapTail(cur, size-len(p))
			}
		}
		cur += p
	}
	if chunk := strings.TrimSpace(cur); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// overlapTail returns at most n trailing bytes of s, cut forward to a
// rune boundary. Strings no longer than n carry nothing: repeating the
// whole previous chunk adds no new context.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return ""
	}
	i := len(s) - n
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

func splitBySeparators(text string, size int, seps []string) []string {
	if len(text) <= size {
		return []string{text}
	}
	sep := seps[0]
	rest := seps[1:]

	if sep == "" {
		// Hard split on rune boundaries.
		var out []string
		runes := []rune(text)
		for i := 0; i < len(runes); i += size {
			end := i + size
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[i:end]))
		}
		return out
	}

	parts := strings.SplitAfter(text, sep)
	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= size {
			out = append(out, part)
			continue
		}
		if len(rest) > 0 {
			out = append(out, splitBySeparators(part, size, rest)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}
