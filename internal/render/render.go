// Package render decides where a built report's output goes, per spec.md
// §6's output-format rules: compact JSON to stdout, markdown (plain or, on
// a terminal, a rich lipgloss rendering to stderr), or a pretty-printed
// file.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"aird/internal/report"
)

// Format is an output-format specifier, as accepted by the --output flag.
type Format struct {
	Kind Kind
	// Path is set when Kind is KindJSONFile.
	Path string
}

type Kind int

const (
	KindStdout Kind = iota
	KindMarkdown
	KindJSONFile
)

// ParseFormat interprets a raw --output value.
func ParseFormat(raw string) Format {
	if rest, ok := cutPrefix(raw, "json:"); ok {
		return Format{Kind: KindJSONFile, Path: rest}
	}
	switch raw {
	case "markdown":
		return Format{Kind: KindMarkdown}
	default:
		return Format{Kind: KindStdout}
	}
}

func cutPrefix(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

// Write renders rep to stdout/stderr/a file per format.Kind.
func Write(format Format, rep report.Report, stdout, stderr io.Writer) error {
	switch format.Kind {
	case KindJSONFile:
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("render: marshaling report: %w", err)
		}
		if err := os.WriteFile(format.Path, data, 0o644); err != nil {
			return fmt.Errorf("render: writing %s: %w", format.Path, err)
		}
		return nil

	case KindMarkdown:
		if isTerminal(stdout) {
			fmt.Fprintln(stderr, RichSummary(rep))
			return nil
		}
		_, err := fmt.Fprintln(stdout, report.Markdown(rep))
		return err

	default:
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("render: marshaling report: %w", err)
		}
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
