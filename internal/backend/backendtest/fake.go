// Package backendtest provides a deterministic in-memory backend for tests.
package backendtest

import (
	"context"
	"strings"
	"sync"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/example/go-phonemizer/internal/separator"
)

// Fake implements backend.Phonemizer without any external process. By
// default each word is echoed back unchanged, so punctuation round-trips
// can be checked exactly.
type Fake struct {
	// WordFunc maps one input word to its phonemized form. Identity when
	// nil.
	WordFunc func(word string) string

	// Err, when set, is returned by every PhonemizeRaw call.
	Err error

	// ExtraSegments appends that many empty segments to every result,
	// breaking the one-to-one output contract on purpose.
	ExtraSegments int

	// Switches marks every PhonemizeRaw call as having switched language
	// on its first line.
	Switches bool

	mu     sync.Mutex
	calls  [][]string
	warned [][]int
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) IsAvailable() bool { return true }

func (f *Fake) Version() (string, error) { return "0.0.0", nil }

func (f *Fake) SupportedLanguages() (map[string]string, error) {
	return map[string]string{"en-us": "english-us"}, nil
}

func (f *Fake) PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (backend.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return backend.RawResult{}, err
	}
	if f.Err != nil {
		return backend.RawResult{}, f.Err
	}

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), segments...))
	f.mu.Unlock()

	res := backend.RawResult{Segments: make([]string, 0, len(segments))}
	for _, segment := range segments {
		var words []string
		for _, word := range strings.Fields(segment) {
			if f.WordFunc != nil {
				word = f.WordFunc(word)
			}
			words = append(words, word)
		}
		line := strings.Join(words, sep.Word)
		if !strip && len(words) > 0 {
			line += sep.Word
		}
		res.Segments = append(res.Segments, line)
	}
	for i := 0; i < f.ExtraSegments; i++ {
		res.Segments = append(res.Segments, "")
	}
	if f.Switches && len(segments) > 0 {
		res.Switches = append(res.Switches, offset+1)
	}
	return res, nil
}

// WarnSwitches records the reported switch line numbers instead of logging.
func (f *Fake) WarnSwitches(switches []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warned = append(f.warned, append([]int(nil), switches...))
}

// Calls returns the segment slices passed to PhonemizeRaw, in call order.
func (f *Fake) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Warned returns the switch slices passed to WarnSwitches, in call order.
func (f *Fake) Warned() [][]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.warned
}
