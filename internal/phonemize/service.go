package phonemize

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-phonemizer/internal/backend"
	"github.com/example/go-phonemizer/internal/config"
	"github.com/example/go-phonemizer/internal/punctuation"
	"github.com/example/go-phonemizer/internal/separator"
)

// Service turns lines of text into lines of phonemes. It owns the
// punctuation handling around a backend: marks are removed before the text
// reaches the backend and, when preservation is on, spliced back into the
// phonemized output afterwards.
type Service struct {
	backend  backend.Phonemizer
	punct    *punctuation.Punctuation
	sep      separator.Separator
	strip    bool
	preserve bool
	njobs    int
	logger   *slog.Logger
}

// Options configures a Service around an existing backend.
type Options struct {
	Separator           separator.Separator
	Strip               bool
	PreservePunctuation bool

	// PunctuationMarks overrides the default punctuation character set
	// when non-empty.
	PunctuationMarks string

	// NJobs caps the number of concurrent backend dispatches. Values
	// below 1 mean sequential.
	NJobs int

	Logger *slog.Logger
}

func New(b backend.Phonemizer, opts Options) (*Service, error) {
	if b == nil {
		return nil, fmt.Errorf("phonemize: backend is required")
	}

	marks := opts.PunctuationMarks
	if marks == "" {
		marks = punctuation.DefaultMarks
	}
	punct, err := punctuation.New(marks)
	if err != nil {
		return nil, fmt.Errorf("phonemize: %w", err)
	}

	njobs := opts.NJobs
	if njobs < 1 {
		njobs = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		backend:  b,
		punct:    punct,
		sep:      opts.Separator,
		strip:    opts.Strip,
		preserve: opts.PreservePunctuation,
		njobs:    njobs,
		logger:   logger,
	}, nil
}

// FromConfig resolves the configured backend and builds a Service from it.
func FromConfig(cfg config.Config, logger *slog.Logger) (*Service, error) {
	name, err := config.NormalizeBackend(cfg.Phonemize.Backend)
	if err != nil {
		return nil, err
	}

	sep, err := separator.New(cfg.Separator.Word, cfg.Separator.Syllable, cfg.Separator.Phone)
	if err != nil {
		return nil, err
	}

	b, err := backend.New(name, backend.Options{
		Language:       cfg.Phonemize.Language,
		ExecutablePath: cfg.Phonemize.BackendPath,
		WithStress:     cfg.Phonemize.WithStress,
		Tie:            cfg.Phonemize.Tie,
		LanguageSwitch: cfg.Phonemize.LanguageSwitch,
		WordsMismatch:  cfg.Phonemize.WordsMismatch,
		G2PDir:         cfg.Paths.G2PDir,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return New(b, Options{
		Separator:           sep,
		Strip:               cfg.Phonemize.Strip,
		PreservePunctuation: cfg.Phonemize.PreservePunctuation,
		PunctuationMarks:    cfg.Phonemize.PunctuationMarks,
		NJobs:               cfg.Phonemize.NJobs,
		Logger:              logger,
	})
}

// Backend exposes the underlying engine, mainly for listings and doctor
// checks.
func (s *Service) Backend() backend.Phonemizer { return s.backend }

// Phonemize processes lines of text and returns one phonemized line per
// surviving input line. Lines that are empty, or reduced to nothing once
// punctuation is removed without preservation, are dropped from the output.
func (s *Service) Phonemize(ctx context.Context, lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	var segments []string
	var marks []punctuation.Mark
	if s.preserve {
		segments, marks = s.punct.Preserve(lines)
	} else {
		segments = dropEmpty(s.punct.Remove(lines), s.logger)
	}
	if len(segments) == 0 {
		return punctuation.Restore(nil, marks, s.sep, s.strip), nil
	}

	out, switches, err := s.dispatch(ctx, segments)
	if err != nil {
		return nil, err
	}
	if len(out) != len(segments) {
		return nil, fmt.Errorf(
			"phonemize: backend %s returned %d segments for %d input segments",
			s.backend.Name(), len(out), len(segments))
	}

	s.warnSwitches(switches)

	if s.preserve {
		return punctuation.Restore(out, marks, s.sep, s.strip), nil
	}
	return out, nil
}

// dispatch hands segments to the backend in up to njobs parallel chunks,
// reassembling the results in input order.
func (s *Service) dispatch(ctx context.Context, segments []string) ([]string, []int, error) {
	chunks, offsets := Chunks(segments, s.njobs)
	if len(chunks) == 1 {
		res, err := s.backend.PhonemizeRaw(ctx, chunks[0], 0, s.sep, s.strip)
		if err != nil {
			return nil, nil, err
		}
		return res.Segments, res.Switches, nil
	}

	s.logger.Info("phonemizing in parallel",
		"backend", s.backend.Name(), "chunks", len(chunks), "lines", len(segments))

	results := make([][]string, len(chunks))
	switches := make([][]int, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := s.backend.PhonemizeRaw(gctx, chunk, offsets[i], s.sep, s.strip)
			if err != nil {
				return err
			}
			results[i] = res.Segments
			switches[i] = res.Switches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []string
	var sw []int
	for i := range results {
		out = append(out, results[i]...)
		sw = append(sw, switches[i]...)
	}
	return out, sw, nil
}

// warnSwitches reports language switches once per run, after every chunk is
// in. Engines with a switch policy word the warnings themselves.
func (s *Service) warnSwitches(switches []int) {
	if len(switches) == 0 {
		return
	}
	if w, ok := s.backend.(backend.SwitchWarner); ok {
		w.WarnSwitches(switches)
		return
	}
	s.logger.Warn("language switches detected in the phonemized output",
		"backend", s.backend.Name(), "lines", switches, "count", len(switches))
}

func dropEmpty(lines []string, logger *slog.Logger) []string {
	kept := lines[:0:len(lines)]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	if removed := len(lines) - len(kept); removed > 0 {
		logger.Warn("removed empty lines from the text to phonemize", "count", removed)
	}
	return kept
}
