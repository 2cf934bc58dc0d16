package backend

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/example/go-phonemizer/internal/separator"
)

// pause symbols emitted in .pho output, dropped from phonemized text
var mbrolaPauses = map[string]bool{"_": true, "_:": true}

// espeakMbrola drives espeak-ng in mbrola mode (--pho). The output is a
// stream of SAMPA phones; word and syllable separators do not apply.
type espeakMbrola struct {
	exe      string
	language string
	run      commandRunner
}

func newEspeakMbrola(opts Options) (*espeakMbrola, error) {
	exe := opts.ExecutablePath
	if exe == "" {
		exe = findEspeak()
	}
	if exe == "" {
		return nil, fmt.Errorf("espeak not installed on your system")
	}
	if _, err := exec.LookPath("mbrola"); err != nil {
		return nil, fmt.Errorf("mbrola not installed on your system")
	}
	if !strings.HasPrefix(opts.Language, "mb-") {
		return nil, fmt.Errorf("mbrola language must be an mb- voice, got %q", opts.Language)
	}

	return &espeakMbrola{exe: exe, language: opts.Language, run: runCommand}, nil
}

func (m *espeakMbrola) Name() string { return NameEspeakMbrola }

func (m *espeakMbrola) IsAvailable() bool {
	_, err := exec.LookPath("mbrola")
	return m.exe != "" && err == nil
}

func (m *espeakMbrola) Version() (string, error) {
	return espeakVersion(context.Background(), m.run, m.exe)
}

func (m *espeakMbrola) SupportedLanguages() (map[string]string, error) {
	out, err := m.run(context.Background(), m.exe, "--voices=mb")
	if err != nil {
		return nil, err
	}

	// voice files are named mb/mb-xx; the voice is selected as mb-xx
	languages := make(map[string]string)
	for lang, name := range parseVoices(string(out)) {
		languages["mb-"+lang] = name
	}
	return languages, nil
}

func (m *espeakMbrola) PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (RawResult, error) {
	res := RawResult{Segments: make([]string, 0, len(segments))}

	for i, segment := range segments {
		raw, err := m.run(ctx, m.exe, "-q", "-v", m.language, "--pho", "--", segment)
		if err != nil {
			return RawResult{}, fmt.Errorf("phonemize line %d: %w", offset+i+1, err)
		}
		res.Segments = append(res.Segments, postprocessPho(string(raw), sep, strip))
	}
	return res, nil
}

// postprocessPho extracts the phone column from mbrola .pho output, one
// phone per line followed by its duration in milliseconds.
func postprocessPho(raw string, sep separator.Separator, strip bool) string {
	var phones []string
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || mbrolaPauses[fields[0]] {
			continue
		}
		phones = append(phones, fields[0])
	}

	out := strings.Join(phones, sep.Phone)
	if !strip && len(phones) > 0 {
		out += sep.Phone
	}
	return out
}
