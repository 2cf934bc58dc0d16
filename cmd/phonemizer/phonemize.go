package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-phonemizer/internal/phonemize"
	"github.com/spf13/cobra"
)

func newPhonemizeCmd() *cobra.Command {
	var text string
	var in string
	var out string

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Phonemize text from a flag, a file or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInputText(text, in, os.Stdin)
			if err != nil {
				return err
			}

			svc, err := phonemize.FromConfig(cfg, slog.Default())
			if err != nil {
				return err
			}

			lines := splitLines(input)
			phonemized, err := svc.Phonemize(cmd.Context(), lines)
			if err != nil {
				return err
			}

			return writeOutput(out, phonemized, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize (one utterance per line)")
	cmd.Flags().StringVar(&in, "in", "", "Input text file ('-' for stdin; default stdin when --text is empty)")
	cmd.Flags().StringVar(&out, "out", "-", "Output file ('-' for stdout)")

	return cmd
}

// readInputText resolves the input precedence: --text wins, then --in, then
// stdin.
func readInputText(text, in string, stdin io.Reader) (string, error) {
	if text != "" {
		if in != "" {
			return "", fmt.Errorf("--text and --in are mutually exclusive")
		}
		return text, nil
	}

	if in != "" && in != "-" {
		data, err := os.ReadFile(in)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input text (use --text, --in or pipe to stdin)")
	}
	return string(data), nil
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

func writeOutput(path string, lines []string, stdout io.Writer) error {
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}

	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, body)
		return err
	}

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
