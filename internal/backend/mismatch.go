package backend

import (
	"fmt"
	"log/slog"
	"strings"
)

// Word count mismatch policies for the espeak engine. espeak sometimes
// merges two input words into one output token (contractions, liaisons), so
// the output word count can differ from the input word count.
const (
	MismatchIgnore = "ignore"
	MismatchWarn   = "warn"
	MismatchRemove = "remove"
)

// wordsMismatch compares per-segment word counts between engine input and
// output and applies one of the policies above.
type wordsMismatch struct {
	mode string
	log  *slog.Logger
}

func newWordsMismatch(mode string, log *slog.Logger) (*wordsMismatch, error) {
	if mode == "" {
		mode = MismatchIgnore
	}
	switch mode {
	case MismatchIgnore, MismatchWarn, MismatchRemove:
		return &wordsMismatch{mode: mode, log: log}, nil
	default:
		return nil, fmt.Errorf(
			"words mismatch mode %q invalid (want %s|%s|%s)",
			mode, MismatchIgnore, MismatchWarn, MismatchRemove)
	}
}

func countWords(line string) int {
	return len(strings.Fields(line))
}

// process compares input and output word counts segment by segment. Under
// the remove policy, mismatched output segments are blanked in place. offset
// is added to reported line numbers.
func (w *wordsMismatch) process(input, output []string, offset int) {
	var mismatched []int
	for i := range input {
		if i >= len(output) {
			break
		}
		nin, nout := countWords(input[i]), countWords(output[i])
		if nin == nout {
			continue
		}
		mismatched = append(mismatched, i)

		if w.mode == MismatchWarn {
			w.log.Warn("words count mismatch",
				slog.Int("line", offset+i+1),
				slog.Int("expected", nin),
				slog.Int("got", nout))
		}
	}

	if len(mismatched) == 0 {
		return
	}

	if w.mode == MismatchRemove {
		for _, i := range mismatched {
			output[i] = ""
		}
		w.log.Warn("removing mismatched lines", slog.Int("count", len(mismatched)))
	}

	percent := 100 * float64(len(mismatched)) / float64(len(input))
	w.log.Warn("words count mismatch summary",
		slog.Int("mismatched", len(mismatched)),
		slog.Int("lines", len(input)),
		slog.String("ratio", fmt.Sprintf("%.0f%%", percent)))
}
