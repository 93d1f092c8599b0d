// Package textproc holds the text preparation steps shared by ingestion:
// normalization of extracted text, section segmentation and sentence chunking.
package textproc

import (
	"regexp"
	"strings"
)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	lineBreaks      = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	controlChars    = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	punctSpacing    = regexp.MustCompile(`[ \t]*([.,;:!?])[ \t]*`)
	digitL          = regexp.MustCompile(`([0-9])l([0-9])`)
	digitO          = regexp.MustCompile(`([0-9])O([0-9])`)
)

// Normalize cleans raw extracted text. Runs of horizontal whitespace collapse to a
// single space and runs of newlines to a single newline, so heading-per-line layouts
// survive for the segmenter.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = lineBreaks.ReplaceAllString(text, "\n")
	text = controlChars.ReplaceAllString(text, "")
	text = normalizePunctuation(text)

	text = replaceUntilStable(digitL, text, "${1}1${2}")
	text = replaceUntilStable(digitO, text, "${1}0${2}")
	text = decimalCommas(text)

	return tidyLines(text)
}

// normalizePunctuation puts exactly one space after sentence punctuation and none
// before it. Punctuation sitting directly between two digits ("5.0", "1,2", "10:30")
// is part of a number and is left untouched, as is a '.' or ',' that directly precedes
// a digit (".8"). A point split from its integer part ("5 .7") is rejoined.
func normalizePunctuation(text string) string {
	matches := punctSpacing.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		punct := text[m[2]:m[3]]
		b.WriteString(text[last:start])
		last = end

		if end-start == 1 && start > 0 && end < len(text) && isDigit(text[start-1]) && isDigit(text[end]) {
			b.WriteString(punct)
			continue
		}
		if (punct == "." || punct == ",") && m[3] < len(text) && isDigit(text[m[3]]) {
			if punct == "." && start > 0 && isDigit(text[start-1]) {
				b.WriteString(text[m[2]:end])
			} else {
				b.WriteString(text[start:end])
			}
			continue
		}
		b.WriteString(punct)
		if end < len(text) && text[end] != '\n' {
			b.WriteByte(' ')
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

// decimalCommas turns a comma between digits into a decimal point unless it groups
// thousands: at most three digits before it and exactly three after ("250,000").
func decimalCommas(text string) string {
	b := []byte(text)
	for i := 1; i+1 < len(b); i++ {
		if b[i] != ',' || !isDigit(b[i-1]) || !isDigit(b[i+1]) {
			continue
		}
		if !thousandsGroup(b, i) {
			b[i] = '.'
		}
	}
	return string(b)
}

func thousandsGroup(b []byte, comma int) bool {
	before := 0
	for j := comma - 1; j >= 0 && isDigit(b[j]); j-- {
		before++
	}
	after := 0
	for j := comma + 1; j < len(b) && isDigit(b[j]); j++ {
		after++
	}
	return before <= 3 && after == 3
}

// replaceUntilStable reapplies re until the text stops changing; a single pass misses
// overlapping matches such as "1l1l1".
func replaceUntilStable(re *regexp.Regexp, text, repl string) string {
	for i := 0; i < 8; i++ {
		next := re.ReplaceAllString(text, repl)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
