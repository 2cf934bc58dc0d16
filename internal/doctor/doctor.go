// Package doctor provides environment preflight checks for the phonemizer.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// EspeakVersion returns the output of `espeak-ng --version`.
	EspeakVersion VersionFunc
	// SkipEspeak skips the espeak check (segments or festival backend mode).
	SkipEspeak bool
	// FestivalVersion returns the festival version string (e.g. "2.5.0").
	FestivalVersion VersionFunc
	// SkipFestival skips the festival check.
	SkipFestival bool
	// MbrolaVersion reports on the mbrola binary; only its error matters.
	MbrolaVersion VersionFunc
	// SkipMbrola skips the mbrola check.
	SkipMbrola bool
	// G2PFiles is the list of grapheme-to-phoneme profile paths to verify
	// on disk.
	G2PFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- espeak binary ----------------------------------------------------
	if cfg.SkipEspeak {
		fmt.Fprintf(w, "%s espeak binary: skipped\n", PassMark)
	} else {
		ver, err := cfg.EspeakVersion()
		if err != nil {
			res.fail(fmt.Sprintf("espeak binary: %v", err))
			fmt.Fprintf(w, "%s espeak binary: not found (%v)\n", FailMark, err)
		} else if verErr := checkEspeakVersion(ver); verErr != nil {
			res.fail(fmt.Sprintf("espeak version: %v", verErr))
			fmt.Fprintf(w, "%s espeak version %s: %v\n", FailMark, ver, verErr)
		} else {
			fmt.Fprintf(w, "%s espeak binary: %s\n", PassMark, ver)
		}
	}

	// ---- festival binary --------------------------------------------------
	if cfg.SkipFestival {
		fmt.Fprintf(w, "%s festival binary: skipped\n", PassMark)
	} else {
		ver, err := cfg.FestivalVersion()
		if err != nil {
			res.fail(fmt.Sprintf("festival binary: %v", err))
			fmt.Fprintf(w, "%s festival binary: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s festival binary: %s\n", PassMark, ver)
		}
	}

	// ---- mbrola binary ----------------------------------------------------
	if cfg.SkipMbrola {
		fmt.Fprintf(w, "%s mbrola binary: skipped\n", PassMark)
	} else {
		if _, err := cfg.MbrolaVersion(); err != nil {
			res.fail(fmt.Sprintf("mbrola binary: %v", err))
			fmt.Fprintf(w, "%s mbrola binary: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s mbrola binary: found\n", PassMark)
		}
	}

	// ---- g2p profiles -----------------------------------------------------
	for _, path := range cfg.G2PFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("g2p profile %q: %v", path, err))
			fmt.Fprintf(w, "%s g2p profile %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s g2p profile: %s\n", PassMark, path)
		}
	}

	return res
}

// checkEspeakVersion returns an error if ver is older than 1.48, the first
// release with usable phoneme output flags. ver is expected to be a string
// like "1.51.1".
func checkEspeakVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major < 1 || (major == 1 && minor < 48) {
		return fmt.Errorf("requires espeak >=1.48, got %d.%d", major, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
