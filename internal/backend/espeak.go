package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/example/go-phonemizer/internal/separator"
)

// commandRunner runs an external program and returns its stdout. Injectable
// so engine post-processing is testable without the program installed.
type commandRunner func(ctx context.Context, exe string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, exe string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, exe, args...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %s: %w", exe, msg, err)
		}
		return nil, fmt.Errorf("%s: %w", exe, err)
	}
	return out.Bytes(), nil
}

var (
	espeakStressRE   = regexp.MustCompile(`[ˈˌ'-]+`)
	espeakVersionRE  = regexp.MustCompile(`([0-9]+\.[0-9]+(?:\.[0-9]+)?)`)
	underscoreRunRE  = regexp.MustCompile(`_+`)
	espeakDefaultTie = "͡" // U+0361 combining double inverted breve
)

// findEspeak locates the espeak executable, preferring espeak-ng.
func findEspeak() string {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// espeak phonemizes text by invoking the espeak-ng program once per segment.
type espeak struct {
	exe        string
	language   string
	withStress bool
	tie        string
	ls         *langSwitch
	wm         *wordsMismatch
	run        commandRunner
}

func newEspeak(opts Options) (*espeak, error) {
	exe := opts.ExecutablePath
	if exe == "" {
		exe = findEspeak()
	}
	if exe == "" {
		return nil, fmt.Errorf("espeak not installed on your system")
	}
	if opts.Language == "" {
		return nil, fmt.Errorf("espeak backend requires a language")
	}

	tie := opts.Tie
	if tie != "" && len([]rune(tie)) != 1 {
		return nil, fmt.Errorf("tie must be a single character, got %q", tie)
	}

	log := opts.logger()
	ls, err := newLangSwitch(opts.LanguageSwitch, opts.Language, log)
	if err != nil {
		return nil, err
	}
	wm, err := newWordsMismatch(opts.WordsMismatch, log)
	if err != nil {
		return nil, err
	}

	return &espeak{
		exe:        exe,
		language:   opts.Language,
		withStress: opts.WithStress,
		tie:        tie,
		ls:         ls,
		wm:         wm,
		run:        runCommand,
	}, nil
}

func (e *espeak) Name() string { return NameEspeak }

func (e *espeak) IsAvailable() bool { return e.exe != "" }

func (e *espeak) Version() (string, error) {
	return espeakVersion(context.Background(), e.run, e.exe)
}

func espeakVersion(ctx context.Context, run commandRunner, exe string) (string, error) {
	out, err := run(ctx, exe, "--version")
	if err != nil {
		return "", err
	}
	m := espeakVersionRE.FindString(string(out))
	if m == "" {
		return "", fmt.Errorf("cannot extract espeak version from %q", strings.TrimSpace(string(out)))
	}
	return m, nil
}

func (e *espeak) SupportedLanguages() (map[string]string, error) {
	out, err := e.run(context.Background(), e.exe, "--voices")
	if err != nil {
		return nil, err
	}
	return parseVoices(string(out)), nil
}

// parseVoices reads the tabular output of `espeak --voices`. The first line
// is a header; each voice line has at least the columns
// "Pty Language Age/Gender VoiceName".
func parseVoices(out string) map[string]string {
	languages := make(map[string]string)
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		languages[fields[1]] = strings.ReplaceAll(fields[3], "_", " ")
	}
	return languages
}

func (e *espeak) PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (RawResult, error) {
	res := RawResult{Segments: make([]string, 0, len(segments))}

	for i, segment := range segments {
		raw, err := e.run(ctx, e.exe, e.args(segment)...)
		if err != nil {
			return RawResult{}, fmt.Errorf("phonemize line %d: %w", offset+i+1, err)
		}

		line, switched := e.postprocessLine(string(raw), sep, strip)
		res.Segments = append(res.Segments, line)
		if switched {
			res.Switches = append(res.Switches, offset+i+1)
		}
	}

	e.wm.process(segments, res.Segments, offset)
	return res, nil
}

// WarnSwitches reports the language switches of a whole run according to
// the configured policy.
func (e *espeak) WarnSwitches(switches []int) { e.ls.warn(switches) }

func (e *espeak) args(text string) []string {
	args := []string{"-q", "-v", e.language}
	if e.tie != "" {
		args = append(args, "--ipa", "--tie="+e.tie)
	} else {
		args = append(args, "-x", "--ipa", "--sep=_")
	}
	return append(args, "--", text)
}

// postprocessLine turns raw espeak output for one segment into a single
// phonemized line with the requested separators. It reports whether a
// language switch flag was seen.
func (e *espeak) postprocessLine(raw string, sep separator.Separator, strip bool) (string, bool) {
	// espeak can split an utterance on several output lines, merge them
	line := strings.TrimSpace(strings.ReplaceAll(raw, "\n", " "))
	line = strings.ReplaceAll(line, "  ", " ")

	// espeak-ng sometimes doubles phone separators at word boundaries,
	// see https://github.com/espeak-ng/espeak-ng/issues/694
	line = underscoreRunRE.ReplaceAllString(line, "_")
	line = strings.ReplaceAll(line, "_ ", " ")

	line, switched := e.ls.process(line)
	if line == "" {
		return "", switched
	}

	var b strings.Builder
	for _, word := range strings.Split(line, " ") {
		word = strings.TrimSpace(word)
		if !e.withStress {
			word = espeakStressRE.ReplaceAllString(word, "")
		}
		if !strip && e.tie == "" {
			word += "_"
		}
		b.WriteString(e.processTie(word, sep))
		b.WriteString(sep.Word)
	}

	out := b.String()
	if strip && sep.Word != "" {
		out = strings.TrimSuffix(out, sep.Word)
	}
	return out, switched
}

func (e *espeak) processTie(word string, sep separator.Separator) string {
	if e.tie == "" {
		return strings.ReplaceAll(word, "_", sep.Phone)
	}
	if e.tie != espeakDefaultTie {
		return strings.ReplaceAll(word, espeakDefaultTie, e.tie)
	}
	return word
}
