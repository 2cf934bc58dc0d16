// Package backend provides the phonemization engines.
//
// Each engine implements the Phonemizer interface over punctuation-free text
// segments. Punctuation preservation, chunking and output reassembly happen
// one level up, in internal/phonemize; an engine only turns segments into
// raw phonemized segments, one output per input, in order.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/go-phonemizer/internal/separator"
)

// Engine names accepted by New.
const (
	NameEspeak       = "espeak"
	NameEspeakMbrola = "espeak-mbrola"
	NameFestival     = "festival"
	NameSegments     = "segments"
)

// Names returns the known engine names in display order.
func Names() []string {
	return []string{NameEspeak, NameEspeakMbrola, NameFestival, NameSegments}
}

// RawResult is the output of one PhonemizeRaw call. Segments holds one
// phonemized string per input segment, in input order. Switches lists the
// 1-based global line numbers (offset applied) on which the engine detected
// a language switch; it is empty for engines without that notion.
type RawResult struct {
	Segments []string
	Switches []int
}

// Phonemizer is the contract shared by all engines.
type Phonemizer interface {
	// Name returns the engine name as accepted by New.
	Name() string

	// IsAvailable reports whether the engine can run on this system.
	IsAvailable() bool

	// Version returns the engine version, probing the external program
	// when there is one.
	Version() (string, error)

	// SupportedLanguages maps language codes to human-readable names.
	SupportedLanguages() (map[string]string, error)

	// PhonemizeRaw phonemizes punctuation-free segments. It must return
	// exactly one output segment per input segment, in the same order.
	// offset is the global index of the first segment, used to report
	// line numbers in side-channel metadata.
	PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (RawResult, error)
}

// SwitchWarner is implemented by engines that report language switches with
// policy-aware messaging once a full run is done. switches holds the global
// line numbers collected from every RawResult of the run.
type SwitchWarner interface {
	WarnSwitches(switches []int)
}

// Options configures engine construction. Zero values select defaults.
type Options struct {
	// Language is the language code (espeak voice, "en-us" for festival,
	// a profile name or file path for segments).
	Language string

	// ExecutablePath overrides the engine binary lookup.
	ExecutablePath string

	// WithStress keeps stress markers in espeak output.
	WithStress bool

	// Tie is the tie character joining multi-letter phonemes in espeak
	// output. Empty disables ties.
	Tie string

	// LanguageSwitch selects how espeak language-switch flags are
	// handled: keep-flags (default), remove-flags or remove-utterance.
	LanguageSwitch string

	// WordsMismatch selects how word count mismatches between input and
	// espeak output are handled: ignore (default), warn or remove.
	WordsMismatch string

	// G2PDir is the directory scanned for *.g2p profiles by the segments
	// engine when Language is not a file path.
	G2PDir string

	// Logger receives engine warnings. nil falls back to slog.Default.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// New returns the engine registered under name. The name must already be
// normalized (config.NormalizeBackend).
func New(name string, opts Options) (Phonemizer, error) {
	switch name {
	case NameEspeak:
		return newEspeak(opts)
	case NameEspeakMbrola:
		return newEspeakMbrola(opts)
	case NameFestival:
		return newFestival(opts)
	case NameSegments:
		return newSegments(opts)
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}
