// Package chunker splits extracted document text into ordered, overlapping
// retrievable units. Splitting is deterministic: identical input always
// yields byte-identical chunk boundaries, which idempotent re-ingestion and
// the tests depend on.
//
// Whitespace is normalized while splitting: blank-line runs collapse to one
// blank line and the whitespace between re-joined sentences to one space, so
// concatenating the chunks (overlaps removed) reconstructs the
// whitespace-normalized text, not the raw bytes.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doclens/doclens/internal/rag/errs"
)

var paragraphRegex = regexp.MustCompile(`\n{2,}`)

// unit is one indivisible piece of text plus the separator to place before
// it when it continues an existing buffer.
type unit struct {
	text string
	sep  string
}

// Chunk splits text into pieces holding at most roughly targetSize new
// characters each. Paragraphs are the primary split boundary; any paragraph
// longer than 1.5x targetSize is further split on sentence boundaries. When
// a chunk is emitted, a word-aligned tail of up to overlap characters is
// carried forward as the prefix of the next chunk.
//
// Empty or whitespace-only input yields no chunks and no error.
func Chunk(text string, targetSize, overlap int) ([]string, error) {
	if targetSize <= 0 || overlap < 0 || targetSize <= overlap {
		return nil, fmt.Errorf("%w: target size %d must exceed overlap %d", errs.ErrInvalidInput, targetSize, overlap)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	units := splitUnits(text, targetSize)

	var chunks []string
	var buf strings.Builder
	newChars := 0 // chars in buf excluding the carried overlap prefix

	for _, u := range units {
		sep := ""
		if buf.Len() > 0 {
			sep = u.sep
		}
		if newChars > 0 && newChars+len(sep)+len(u.text) > targetSize {
			chunk := buf.String()
			chunks = append(chunks, chunk)

			carried := OverlapTail(chunk, overlap)
			buf.Reset()
			buf.WriteString(carried)
			newChars = 0
			if buf.Len() > 0 {
				sep = u.sep
			} else {
				sep = ""
			}
		}
		buf.WriteString(sep)
		buf.WriteString(u.text)
		newChars += len(sep) + len(u.text)
	}

	// trailing partial buffer is always flushed, unless it holds nothing
	// beyond the carried prefix
	if newChars > 0 {
		chunks = append(chunks, buf.String())
	}
	return chunks, nil
}

// OverlapTail returns the suffix of up to overlap characters, snapped
// forward to the nearest word boundary so the carry never starts mid-word.
func OverlapTail(s string, overlap int) string {
	if overlap <= 0 || s == "" {
		return ""
	}
	if len(s) <= overlap {
		return s
	}
	cut := len(s) - overlap
	if !isSpace(s[cut-1]) {
		idx := strings.IndexAny(s[cut:], " \t\n")
		if idx < 0 {
			return s[cut:]
		}
		cut += idx + 1
	}
	return strings.TrimLeft(s[cut:], " \t\n")
}

func splitUnits(text string, targetSize int) []unit {
	oversize := targetSize + targetSize/2

	var units []unit
	for _, p := range paragraphRegex.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(p) <= oversize {
			units = append(units, unit{text: p, sep: "\n\n"})
			continue
		}
		for i, s := range splitSentences(p) {
			sep := " "
			if i == 0 {
				sep = "\n\n"
			}
			units = append(units, unit{text: s, sep: sep})
		}
	}
	return units
}

// splitSentences cuts on `.`, `!` or `?` runs followed by whitespace, keeping
// the punctuation with the sentence it ends.
func splitSentences(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		if !isTerminator(p[i]) {
			continue
		}
		j := i
		for j+1 < len(p) && isTerminator(p[j+1]) {
			j++
		}
		if j+1 < len(p) && !isSpace(p[j+1]) {
			i = j
			continue
		}
		if s := strings.TrimSpace(p[start : j+1]); s != "" {
			out = append(out, s)
		}
		k := j + 1
		for k < len(p) && isSpace(p[k]) {
			k++
		}
		start = k
		i = k - 1
	}
	if start < len(p) {
		if s := strings.TrimSpace(p[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
