// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireEspeak(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireEspeak skips the test if neither espeak-ng nor espeak is found in
// PATH or at the path given by the PHONEMIZER_ESPEAK_PATH environment
// variable.
func RequireEspeak(tb testing.TB) {
	tb.Helper()

	if exe := os.Getenv("PHONEMIZER_ESPEAK_PATH"); exe != "" {
		if _, err := exec.LookPath(exe); err != nil {
			tb.Skipf("espeak binary not available at PHONEMIZER_ESPEAK_PATH=%q", exe)
		}
		return
	}

	for _, exe := range []string{"espeak-ng", "espeak"} {
		if _, err := exec.LookPath(exe); err == nil {
			return
		}
	}
	tb.Skip("espeak binary not available (espeak-ng or espeak not in PATH); set PHONEMIZER_ESPEAK_PATH to override")
}

// RequireFestival skips the test if the festival binary is not in PATH.
func RequireFestival(tb testing.TB) {
	tb.Helper()

	if _, err := exec.LookPath("festival"); err != nil {
		tb.Skip("festival binary not available (not in PATH)")
	}
}

// RequireMbrola skips the test if espeak or the mbrola binary is missing.
func RequireMbrola(tb testing.TB) {
	tb.Helper()

	RequireEspeak(tb)
	if _, err := exec.LookPath("mbrola"); err != nil {
		tb.Skip("mbrola binary not available (not in PATH)")
	}
}

// WriteG2PProfile writes a grapheme-to-phoneme table into a fresh temp
// directory and returns its path. The file is removed with the test.
func WriteG2PProfile(tb testing.TB, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "profile.g2p")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write g2p profile: %v", err)
	}
	return path
}
