package punctuation

import "fmt"

// Position locates a punctuation run within the line it was extracted from.
type Position uint8

const (
	// Begin marks a run that is a strict prefix of its line.
	Begin Position = iota
	// End marks a run that is a strict suffix of its line.
	End
	// Alone marks a line made of a single run and nothing else.
	Alone
	// Inner marks a run strictly between two pieces of content.
	Inner
)

func (p Position) String() string {
	switch p {
	case Begin:
		return "begin"
	case End:
		return "end"
	case Alone:
		return "alone"
	case Inner:
		return "inner"
	default:
		return fmt.Sprintf("Position(%d)", uint8(p))
	}
}

// Mark records one punctuation run extracted by Preserve so that Restore can
// reinsert it without re-scanning the original text. LineIndex is the 0-based
// index of the source line, Text the exact extracted substring (punctuation
// plus adjacent whitespace). Marks are never mutated after creation.
type Mark struct {
	LineIndex int
	Text      string
	Position  Position
}
