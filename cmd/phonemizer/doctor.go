package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/example/go-phonemizer/internal/config"
	"github.com/example/go-phonemizer/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local environment checks for the configured backend",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			backendName, err := config.NormalizeBackend(cfg.Phonemize.Backend)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "backend: %s\n", backendName)

			needsEspeak := backendName == config.BackendEspeak || backendName == config.BackendEspeakMbrola

			dcfg := doctor.Config{
				EspeakVersion: func() (string, error) {
					return probeEspeakVersion(cfg.Phonemize.BackendPath)
				},
				SkipEspeak:      !needsEspeak,
				FestivalVersion: probeFestivalVersion,
				SkipFestival:    backendName != config.BackendFestival,
				MbrolaVersion:   probeMbrola,
				SkipMbrola:      backendName != config.BackendEspeakMbrola,
			}
			if backendName == config.BackendSegments {
				dcfg.G2PFiles = collectG2PFiles(cfg)
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

var versionRE = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)+(?:-dev)?)`)

// probeEspeakVersion runs `<exe> --version` and extracts the version number
// from output like "eSpeak NG text-to-speech: 1.51.1  Data at: ...".
func probeEspeakVersion(exe string) (string, error) {
	if exe == "" {
		for _, name := range []string{"espeak-ng", "espeak"} {
			if path, err := exec.LookPath(name); err == nil {
				exe = path
				break
			}
		}
	}
	if exe == "" {
		return "", errors.New("espeak-ng/espeak not found on PATH")
	}

	out, err := exec.CommandContext(context.Background(), exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", exe, err)
	}

	ver := versionRE.FindString(string(out))
	if ver == "" {
		return "", fmt.Errorf("cannot parse espeak version from %q", strings.TrimSpace(string(out)))
	}
	return ver, nil
}

// probeFestivalVersion runs `festival --version` and extracts the version
// number from output like "Festival Speech Synthesis System: 2.5.0 ...".
func probeFestivalVersion() (string, error) {
	exe, err := exec.LookPath("festival")
	if err != nil {
		return "", errors.New("festival not found on PATH")
	}

	out, err := exec.CommandContext(context.Background(), exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("festival --version failed: %w", err)
	}

	ver := versionRE.FindString(string(out))
	if ver == "" {
		return "", fmt.Errorf("cannot parse festival version from %q", strings.TrimSpace(string(out)))
	}
	return ver, nil
}

// probeMbrola only checks that the binary exists; mbrola prints no usable
// version string.
func probeMbrola() (string, error) {
	if _, err := exec.LookPath("mbrola"); err != nil {
		return "", errors.New("mbrola not found on PATH")
	}
	return "found", nil
}

// collectG2PFiles returns the profile paths the segments backend would try
// for the configured language: the language value itself when it points at a
// file, otherwise <g2p_dir>/<language>.g2p.
func collectG2PFiles(cfg config.Config) []string {
	lang := cfg.Phonemize.Language
	if lang == "" {
		return nil
	}
	if _, err := os.Stat(lang); err == nil {
		return []string{lang}
	}
	if cfg.Paths.G2PDir == "" {
		return []string{lang}
	}
	return []string{filepath.Join(cfg.Paths.G2PDir, lang+".g2p")}
}
