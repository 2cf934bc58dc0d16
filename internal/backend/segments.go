package backend

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-phonemizer/internal/separator"
)

// segmentsVersion identifies the built-in grapheme-to-phoneme tokenizer.
const segmentsVersion = "1.0"

// segments phonemizes text from a grapheme-to-phoneme mapping table, with
// no external program involved. The language is either the path of a g2p
// profile file or the name of a *.g2p file in the configured directory.
//
// A profile is a two-column text file mapping each grapheme (one or more
// characters) to its phoneme. Words are tokenized by greedy longest-prefix
// matching; an unmappable grapheme is an error, never silently skipped.
type segments struct {
	language string
	g2pDir   string
	mapping  map[string]string
	maxLen   int // longest grapheme length in runes
}

func newSegments(opts Options) (*segments, error) {
	if opts.Language == "" {
		return nil, fmt.Errorf("segments backend requires a language or g2p file path")
	}

	s := &segments{language: opts.Language, g2pDir: opts.G2PDir}

	path, err := s.resolveProfile(opts.Language)
	if err != nil {
		return nil, err
	}
	mapping, err := loadG2PProfile(path)
	if err != nil {
		return nil, err
	}

	s.mapping = mapping
	for g := range mapping {
		if n := len([]rune(g)); n > s.maxLen {
			s.maxLen = n
		}
	}
	return s, nil
}

func (s *segments) resolveProfile(language string) (string, error) {
	if _, err := os.Stat(language); err == nil {
		return language, nil
	}

	supported, err := s.SupportedLanguages()
	if err != nil {
		return "", err
	}
	if path, ok := supported[language]; ok {
		return path, nil
	}
	return "", fmt.Errorf("grapheme to phoneme file not found for %q", language)
}

// loadG2PProfile reads a two-column grapheme/phoneme table, reporting
// malformed lines by number.
func loadG2PProfile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open g2p profile: %w", err)
	}
	defer func() { _ = file.Close() }()

	mapping := make(map[string]string)
	scanner := bufio.NewScanner(file)
	num := 0
	for scanner.Scan() {
		num++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf(
				"g2p profile %s: line %d must have 2 columns but has %d",
				path, num, len(fields))
		}
		mapping[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read g2p profile: %w", err)
	}
	if len(mapping) == 0 {
		return nil, fmt.Errorf("g2p profile %s is empty", path)
	}
	return mapping, nil
}

func (s *segments) Name() string { return NameSegments }

func (s *segments) IsAvailable() bool { return true }

func (s *segments) Version() (string, error) { return segmentsVersion, nil }

func (s *segments) SupportedLanguages() (map[string]string, error) {
	if s.g2pDir == "" {
		return map[string]string{}, nil
	}

	entries, err := os.ReadDir(s.g2pDir)
	if err != nil {
		return nil, fmt.Errorf("scan g2p directory: %w", err)
	}

	languages := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".g2p") {
			continue
		}
		languages[strings.TrimSuffix(name, ".g2p")] = filepath.Join(s.g2pDir, name)
	}
	return languages, nil
}

func (s *segments) PhonemizeRaw(ctx context.Context, segments []string, offset int, sep separator.Separator, strip bool) (RawResult, error) {
	res := RawResult{Segments: make([]string, 0, len(segments))}

	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return RawResult{}, err
		}

		var words []string
		for _, word := range strings.Fields(segment) {
			phones, err := s.tokenize(word)
			if err != nil {
				return RawResult{}, fmt.Errorf("line %d: %w", offset+i+1, err)
			}
			joined := strings.Join(phones, sep.Phone)
			if !strip {
				joined += sep.Phone
			}
			words = append(words, joined)
		}

		line := strings.Join(words, sep.Word)
		if !strip && len(words) > 0 {
			line += sep.Word
		}
		res.Segments = append(res.Segments, line)
	}
	return res, nil
}

// tokenize splits a word into phonemes by greedy longest-prefix matching
// against the grapheme table.
func (s *segments) tokenize(word string) ([]string, error) {
	runes := []rune(word)
	var phones []string

	for len(runes) > 0 {
		matched := false
		for n := min(s.maxLen, len(runes)); n > 0; n-- {
			if phone, ok := s.mapping[string(runes[:n])]; ok {
				phones = append(phones, phone)
				runes = runes[n:]
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("no phoneme mapping for grapheme %q in word %q", string(runes[0]), word)
		}
	}
	return phones, nil
}
