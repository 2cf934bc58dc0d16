// Package punctuation hides punctuation from phonemization backends and
// restores it afterwards.
//
// Backends behave differently with punctuation: espeak and festival silently
// drop or mangle it while a grapheme-to-phoneme table errors on it. The
// Punctuation processor removes the marks before the text reaches a backend
// and, when preservation is requested, reinserts them verbatim in the
// phonemized output.
package punctuation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/go-phonemizer/internal/separator"
)

// DefaultMarks is the punctuation character set used when none is configured.
const DefaultMarks = `;:,.!?¡¿—…"«»“”`

// Punctuation matches punctuation runs in text lines according to a
// configured set of marks, or to a caller-supplied pattern.
type Punctuation struct {
	marks string
	re    *regexp.Regexp
}

// New builds a processor matching runs of the given punctuation characters,
// optionally surrounded by whitespace. Adjacent marks with intervening
// whitespace collapse into a single run ("a, , b" yields one run ", ,").
func New(marks string) (*Punctuation, error) {
	if marks == "" {
		return nil, fmt.Errorf("punctuation marks must not be empty")
	}

	set := dedupRunes(marks)
	re, err := regexp.Compile(`(?:\s*[` + escapeCharClass(set) + `]+\s*)+`)
	if err != nil {
		return nil, fmt.Errorf("build punctuation pattern: %w", err)
	}
	return &Punctuation{marks: set, re: re}, nil
}

// NewFromPattern builds a processor from a pre-compiled pattern, for callers
// needing more control than a character set. The pattern is expected to match
// whole punctuation runs including surrounding whitespace.
func NewFromPattern(re *regexp.Regexp) *Punctuation {
	return &Punctuation{re: re}
}

// Marks returns the configured punctuation characters, deduplicated. It is
// empty when the processor was built from a pattern.
func (p *Punctuation) Marks() string { return p.marks }

// Remove returns the lines with all punctuation runs replaced by a single
// space, trimmed.
func (p *Punctuation) Remove(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimSpace(p.re.ReplaceAllString(line, " "))
	}
	return out
}

// Preserve removes punctuation from the lines, keeping what is needed for a
// later restoration:
//
//	["hello, world!"] -> ["hello", "world"], [{0 ", " Inner} {0 "!" End}]
//
// Empty segments are dropped from the returned slice; marks keep their
// original line indices regardless.
func (p *Punctuation) Preserve(lines []string) ([]string, []Mark) {
	var segments []string
	var marks []Mark

	for num, line := range lines {
		lineSegments, lineMarks := p.preserveLine(line, num)
		segments = append(segments, lineSegments...)
		marks = append(marks, lineMarks...)
	}

	nonEmpty := segments[:0]
	for _, s := range segments {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return nonEmpty, marks
}

func (p *Punctuation) preserveLine(line string, num int) ([]string, []Mark) {
	matches := p.re.FindAllStringIndex(line, -1)
	if matches == nil {
		return []string{line}, nil
	}

	// the line is made only of punctuation
	if len(matches) == 1 && line[matches[0][0]:matches[0][1]] == line {
		return nil, []Mark{{LineIndex: num, Text: line, Position: Alone}}
	}

	var segments []string
	var marks []Mark
	prev := 0
	for i, m := range matches {
		start, end := m[0], m[1]

		position := Inner
		if i == 0 && start == 0 {
			position = Begin
		} else if i == len(matches)-1 && end == len(line) {
			position = End
		}

		segments = append(segments, line[prev:start])
		marks = append(marks, Mark{
			LineIndex: num,
			Text:      line[start:end],
			Position:  position,
		})
		prev = end
	}
	segments = append(segments, line[prev:])

	return segments, marks
}

// Restore reinserts marks into phonemized segments, producing one output
// line per original input line. It is the reverse of Preserve, up to the
// word-separator convention: literal spaces inside mark text are translated
// to sep.Word and, unless strip is set, every line is terminated by sep.Word
// where the mark text does not already supply it.
//
// Preserve drops empty segments before the backend runs, so the walk is
// driven by a virtual line counter matched against the marks' line indices
// rather than by slice positions. A backend that empties a segment entirely
// shifts the merge but never makes it fail.
func Restore(segments []string, marks []Mark, sep separator.Separator, strip bool) []string {
	segs := append([]string(nil), segments...)
	mks := marks
	pos := 0

	var out []string
	for len(segs) > 0 || len(mks) > 0 {
		switch {
		case len(mks) == 0:
			// no punctuation left, the remaining segments map to one
			// line each
			for _, s := range segs {
				out = append(out, endOfLine(s, sep, strip))
			}
			segs = nil

		case len(segs) == 0:
			// pure punctuation tail, collapse the remaining marks into a
			// final line
			var b strings.Builder
			for _, m := range mks {
				b.WriteString(translate(m.Text, sep))
			}
			out = append(out, b.String())
			mks = nil

		case mks[0].LineIndex != pos:
			// the head segment belongs to an unmarked line
			out = append(out, endOfLine(segs[0], sep, strip))
			segs = segs[1:]
			pos++

		default:
			m := mks[0]
			mks = mks[1:]

			text := translate(m.Text, sep)
			head := segs[0]
			if sep.Word != "" {
				head = strings.TrimSuffix(head, sep.Word)
			}

			switch m.Position {
			case Begin:
				segs[0] = text + head

			case End:
				out = append(out, endOfLine(head+text, sep, strip))
				segs = segs[1:]
				pos++

			case Alone:
				out = append(out, endOfLine(text, sep, strip))
				pos++

			case Inner:
				if len(segs) == 1 {
					// the trailing part of the line disappeared during
					// phonemization
					segs[0] = head + text
				} else {
					merged := head + text + segs[1]
					segs = append([]string{merged}, segs[2:]...)
				}
			}
		}
	}
	return out
}

// translate maps literal spaces in mark text to the word separator.
func translate(text string, sep separator.Separator) string {
	return strings.ReplaceAll(text, " ", sep.Word)
}

// endOfLine terminates a restored line with the word separator unless strip
// is set or the line already ends with it.
func endOfLine(line string, sep separator.Separator, strip bool) string {
	if strip || sep.Word == "" || strings.HasSuffix(line, sep.Word) {
		return line
	}
	return line + sep.Word
}

func dedupRunes(s string) string {
	seen := make(map[rune]bool, len(s))
	var b strings.Builder
	for _, r := range s {
		if !seen[r] {
			seen[r] = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeCharClass escapes the characters with a special meaning inside a
// regexp character class.
func escapeCharClass(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', ']', '^', '-', '[':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
