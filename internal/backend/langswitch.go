package backend

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// Language switch policies for the espeak engine. When espeak meets a word
// it cannot phonemize in the target language it switches to another voice
// and flags the span, as in "ʒɛm lə (en)fʊtbɔːl(fr)". The flags pollute the
// output and the switched span may use phones outside the target phoneset.
const (
	LangSwitchKeepFlags       = "keep-flags"
	LangSwitchRemoveFlags     = "remove-flags"
	LangSwitchRemoveUtterance = "remove-utterance"
)

var espeakFlagsRE = regexp.MustCompile(`\(.+?\)`)

// langSwitch processes espeak language-switch flags according to a policy.
type langSwitch struct {
	mode     string
	language string
	log      *slog.Logger
}

func newLangSwitch(mode, language string, log *slog.Logger) (*langSwitch, error) {
	if mode == "" {
		mode = LangSwitchKeepFlags
	}
	switch mode {
	case LangSwitchKeepFlags, LangSwitchRemoveFlags, LangSwitchRemoveUtterance:
		return &langSwitch{mode: mode, language: language, log: log}, nil
	default:
		return nil, fmt.Errorf(
			"language switch mode %q invalid (want %s|%s|%s)",
			mode, LangSwitchKeepFlags, LangSwitchRemoveFlags, LangSwitchRemoveUtterance)
	}
}

// process applies the policy to one phonemized utterance. It returns the
// processed utterance (possibly emptied) and whether a switch was found.
func (l *langSwitch) process(utterance string) (string, bool) {
	found := espeakFlagsRE.MatchString(utterance)
	if !found {
		return utterance, false
	}

	switch l.mode {
	case LangSwitchRemoveFlags:
		return espeakFlagsRE.ReplaceAllString(utterance, ""), true
	case LangSwitchRemoveUtterance:
		return "", true
	default:
		return utterance, true
	}
}

// warn logs a summary once phonemization is done. switches holds the global
// line numbers where a switch was detected.
func (l *langSwitch) warn(switches []int) {
	if len(switches) == 0 {
		return
	}

	sorted := append([]int(nil), switches...)
	sort.Ints(sorted)
	lines := make([]string, len(sorted))
	for i, n := range sorted {
		lines[i] = fmt.Sprint(n)
	}

	if l.mode == LangSwitchRemoveUtterance {
		l.log.Warn("removed utterances containing language switches",
			slog.Int("count", len(sorted)),
			slog.String("policy", l.mode))
		return
	}

	l.log.Warn("utterances contain language switches",
		slog.Int("count", len(sorted)),
		slog.String("lines", strings.Join(lines, ", ")),
		slog.String("policy", l.mode))
	l.log.Warn("extra phones may appear in the target phoneset",
		slog.String("language", l.language))
}
