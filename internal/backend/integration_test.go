package backend_test

import (
	"context"
	"strings"
	"testing"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/example/go-phonemizer/internal/separator"
	"github.com/example/go-phonemizer/internal/testutil"
)

// These tests run against real engine binaries and skip when they are absent.

func TestEspeakIntegration_Phonemize(t *testing.T) {
	testutil.RequireEspeak(t)

	b, err := backend.New(backend.NameEspeak, backend.Options{Language: "en-us"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := b.PhonemizeRaw(context.Background(), []string{"hello world", "goodbye"}, 0, separator.Default(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	for i, seg := range res.Segments {
		if strings.TrimSpace(seg) == "" {
			t.Errorf("segment %d is empty", i)
		}
	}
}

func TestEspeakIntegration_StressStripped(t *testing.T) {
	testutil.RequireEspeak(t)

	b, err := backend.New(backend.NameEspeak, backend.Options{Language: "en-us"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := b.PhonemizeRaw(context.Background(), []string{"hello"}, 0, separator.Default(), true)
	if err != nil {
		t.Fatal(err)
	}
	for _, mark := range []string{"ˈ", "ˌ"} {
		if strings.Contains(res.Segments[0], mark) {
			t.Errorf("output %q still carries stress mark %q", res.Segments[0], mark)
		}
	}
}

func TestEspeakIntegration_VersionAndLanguages(t *testing.T) {
	testutil.RequireEspeak(t)

	b, err := backend.New(backend.NameEspeak, backend.Options{Language: "en-us"})
	if err != nil {
		t.Fatal(err)
	}

	ver, err := b.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if ver == "" {
		t.Error("expected a non-empty version")
	}

	langs, err := b.SupportedLanguages()
	if err != nil {
		t.Fatalf("SupportedLanguages: %v", err)
	}
	if len(langs) == 0 {
		t.Error("expected at least one voice")
	}
}

func TestFestivalIntegration_Phonemize(t *testing.T) {
	testutil.RequireFestival(t)

	b, err := backend.New(backend.NameFestival, backend.Options{Language: "en-us"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := b.PhonemizeRaw(context.Background(), []string{"hello"}, 0, separator.Default(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Segments) != 1 || strings.TrimSpace(res.Segments[0]) == "" {
		t.Errorf("unexpected festival output %v", res.Segments)
	}
}

func TestMbrolaIntegration_ListsVoices(t *testing.T) {
	testutil.RequireMbrola(t)

	b, err := backend.New(backend.NameEspeakMbrola, backend.Options{Language: "mb-en1"})
	if err != nil {
		t.Skipf("mb-en1 voice not installed: %v", err)
	}

	langs, err := b.SupportedLanguages()
	if err != nil {
		t.Fatalf("SupportedLanguages: %v", err)
	}
	if len(langs) == 0 {
		t.Error("expected at least one mbrola voice")
	}
}
