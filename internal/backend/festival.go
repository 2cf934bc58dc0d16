package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/example/go-phonemizer/internal/separator"
)

// festivalScript is the Scheme program sent to festival. It synthesizes each
// line of the input file and prints its SylStructure relation tree, one
// Scheme expression per line. The %s placeholder receives the text file path.
const festivalScript = `(define (phonemize line)
  (let ((utt (utt.synth (eval (list 'Utterance 'Text line)))))
    (utt.relation_tree utt 'SylStructure)))

(mapcar
 (lambda (line) (format t "%%l\n" (phonemize line)))
 (load "%s" t))
`

var (
	festivalVersionRE = regexp.MustCompile(`([0-9][0-9.]*[0-9]):`)
	multiSpaceRE      = regexp.MustCompile(` +`)
)

// festival phonemizes American English text with the festival speech
// synthesis system, extracting words, syllables and phones from its
// SylStructure relation trees.
type festival struct {
	exe      string
	language string
	run      commandRunner
}

func newFestival(opts Options) (*festival, error) {
	exe := opts.ExecutablePath
	if exe == "" {
		if path, err := exec.LookPath("festival"); err == nil {
			exe = path
		}
	}
	if exe == "" {
		return nil, fmt.Errorf("festival not installed on your system")
	}
	if opts.Language != "en-us" {
		return nil, fmt.Errorf("festival only supports en-us, got %q", opts.Language)
	}
	return &festival{exe: exe, language: opts.Language, run: runCommand}, nil
}

func (f *festival) Name() string { return NameFestival }

func (f *festival) IsAvailable() bool { return f.exe != "" }

func (f *festival) Version() (string, error) {
	out, err := f.run(context.Background(), f.exe, "--version")
	if err != nil {
		return "", err
	}
	m := festivalVersionRE.FindStringSubmatch(decodeLatin1(out))
	if m == nil {
		return "", fmt.Errorf("cannot extract festival version from %q", strings.TrimSpace(decodeLatin1(out)))
	}
	return m[1], nil
}

func (f *festival) SupportedLanguages() (map[string]string, error) {
	return map[string]string{"en-us": "english-us"}, nil
}

func (f *festival) PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (RawResult, error) {
	// double quotes delimit utterances in festival and parentheses break
	// the Scheme syntax, so they are removed before submission. A line
	// can end up empty (it then skips festival entirely but keeps its
	// slot in the output).
	var sent []int
	var quoted []string
	for i, segment := range segments {
		cleaned := cleanFestivalLine(segment)
		if cleaned == "" {
			continue
		}
		sent = append(sent, i)
		quoted = append(quoted, `"`+cleaned+`"`)
	}

	out := make([]string, len(segments))
	if len(quoted) == 0 {
		return RawResult{Segments: out}, nil
	}

	trees, err := f.process(ctx, strings.Join(quoted, "\n"))
	if err != nil {
		return RawResult{}, err
	}
	if len(trees) != len(sent) {
		return RawResult{}, fmt.Errorf(
			"festival returned %d utterances for %d input lines", len(trees), len(sent))
	}

	for j, tree := range trees {
		line, err := festivalLine(tree, sep, strip)
		if err != nil {
			return RawResult{}, fmt.Errorf("parse festival output for line %d: %w", offset+sent[j]+1, err)
		}
		out[sent[j]] = line
	}
	return RawResult{Segments: out}, nil
}

// process runs festival in batch mode over the prepared text and returns
// one SylStructure tree expression per input line.
func (f *festival) process(ctx context.Context, text string) ([]string, error) {
	data, err := os.CreateTemp("", "phonemizer-festival-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create festival input: %w", err)
	}
	defer func() { _ = os.Remove(data.Name()) }()

	if _, err := data.WriteString(text); err != nil {
		_ = data.Close()
		return nil, fmt.Errorf("write festival input: %w", err)
	}
	if err := data.Close(); err != nil {
		return nil, fmt.Errorf("write festival input: %w", err)
	}

	scm, err := os.CreateTemp("", "phonemizer-festival-*.scm")
	if err != nil {
		return nil, fmt.Errorf("create festival script: %w", err)
	}
	defer func() { _ = os.Remove(scm.Name()) }()

	script := fmt.Sprintf(festivalScript, strings.ReplaceAll(data.Name(), `\`, `\\`))
	if _, err := scm.WriteString(script); err != nil {
		_ = scm.Close()
		return nil, fmt.Errorf("write festival script: %w", err)
	}
	if err := scm.Close(); err != nil {
		return nil, fmt.Errorf("write festival script: %w", err)
	}

	raw, err := f.run(ctx, f.exe, "-b", scm.Name())
	if err != nil {
		return nil, err
	}

	// festival outputs latin1, not utf8
	output := multiSpaceRE.ReplaceAllString(decodeLatin1(raw), " ")

	var trees []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "(nil nil nil)" {
			continue
		}
		trees = append(trees, line)
	}
	return trees, nil
}

// cleanFestivalLine removes characters festival cannot accept in its input.
func cleanFestivalLine(line string) string {
	// a line made only of apostrophes crashes festival
	if line != "" && strings.Trim(line, "'") == "" {
		return ""
	}

	line = strings.ReplaceAll(line, `"`, "")
	line = strings.ReplaceAll(line, "(", "")
	line = strings.ReplaceAll(line, ")", "")
	return strings.TrimSpace(line)
}

// festivalLine converts one SylStructure tree into a phonemized line. The
// tree nests as (word syllable...) / (syllable phone...) with the node
// name as the head of each first element.
func festivalLine(tree string, sep separator.Separator, strip bool) (string, error) {
	expr, err := parseSexpr(tree)
	if err != nil {
		return "", err
	}
	words, ok := expr.([]any)
	if !ok {
		return "", fmt.Errorf("expected a word list, got atom %v", expr)
	}

	var out []string
	for _, w := range words {
		word, err := festivalWord(w, sep, strip)
		if err != nil {
			return "", err
		}
		if word != "" {
			out = append(out, word)
		}
	}

	line := strings.Join(out, sep.Word)
	if !strip {
		line += sep.Word
	}
	return line, nil
}

func festivalWord(expr any, sep separator.Separator, strip bool) (string, error) {
	word, ok := expr.([]any)
	if !ok || len(word) == 0 {
		return "", fmt.Errorf("malformed word node %v", expr)
	}

	var sylls []string
	for _, s := range word[1:] {
		syll, err := festivalSyllable(s, sep, strip)
		if err != nil {
			return "", err
		}
		sylls = append(sylls, syll)
	}

	out := strings.Join(sylls, sep.Syllable)
	if !strip {
		out += sep.Syllable
	}
	return out, nil
}

func festivalSyllable(expr any, sep separator.Separator, strip bool) (string, error) {
	syll, ok := expr.([]any)
	if !ok || len(syll) == 0 {
		return "", fmt.Errorf("malformed syllable node %v", expr)
	}

	var phones []string
	for _, p := range syll[1:] {
		phone, ok := p.([]any)
		if !ok || len(phone) == 0 {
			return "", fmt.Errorf("malformed phone node %v", p)
		}
		head, ok := phone[0].([]any)
		if !ok || len(head) == 0 {
			return "", fmt.Errorf("malformed phone node %v", p)
		}
		name, ok := head[0].(string)
		if !ok {
			return "", fmt.Errorf("malformed phone name %v", head[0])
		}
		name = strings.ReplaceAll(name, `"`, "")
		if name != "" {
			phones = append(phones, name)
		}
	}

	out := strings.Join(phones, sep.Phone)
	if !strip {
		out += sep.Phone
	}
	return out, nil
}

// decodeLatin1 maps each byte to the unicode code point of the same value.
func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
