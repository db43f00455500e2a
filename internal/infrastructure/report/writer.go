package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"mvdan.cc/sh/v3/syntax"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

// Writer implements application.Reporter.
type Writer struct{}

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	keptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type resolutionPayload struct {
	Script     string             `json:"script"`
	Module     string             `json:"module"`
	Package    string             `json:"package"`
	Root       string             `json:"root"`
	Mode       string             `json:"mode"`
	Target     string             `json:"target"`
	TopLevel   domain.PackageInfo `json:"top_level"`
	SearchPath []string           `json:"search_path"`
	Command    []string           `json:"command,omitempty"`
	Env        map[string]string  `json:"env,omitempty"`
}

func (Writer) WriteResolution(w io.Writer, result application.ResolveResult, format application.OutputFormat) error {
	ic := result.Context
	switch format {
	case application.OutputJSON:
		return writeJSON(w, resolutionPayload{
			Script:     ic.ScriptPath(),
			Module:     ic.Module(),
			Package:    ic.Package(),
			Root:       ic.RootDir(),
			Mode:       ic.Mode().String(),
			Target:     ic.LaunchTarget(),
			TopLevel:   result.TopLevel,
			SearchPath: result.SearchPath,
			Command:    result.Command,
			Env:        result.Env,
		})
	case application.OutputText, "":
		colorize := colorEnabled(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		row := func(label, value string) {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", style(colorize, labelStyle, label), value)
		}
		row("Script", ic.ScriptPath())
		row("Module", ic.Module())
		row("Package", orDash(ic.Package()))
		top := result.TopLevel
		if top.Name != "" {
			kind := top.InitFile
			if top.Namespace {
				kind = "namespace"
			}
			row("Top level", fmt.Sprintf("%s %s", top.Name, style(colorize, mutedStyle, "("+kind+")")))
		}
		row("Root", ic.RootDir())
		row("Mode", ic.Mode().String())
		if len(result.Command) > 0 {
			row("Command", ShellJoin(result.Command))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(result.SearchPath) > 0 {
			_, _ = fmt.Fprintln(w, "\n"+style(colorize, labelStyle, "Search path:"))
			for _, entry := range result.SearchPath {
				_, _ = fmt.Fprintf(w, "  %s\n", entry)
			}
		}
		if len(result.Env) > 0 {
			_, _ = fmt.Fprintln(w, "\n"+style(colorize, labelStyle, "Environment:"))
			for _, key := range sortedKeys(result.Env) {
				_, _ = fmt.Fprintf(w, "  %s=%s\n", key, quote(result.Env[key]))
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (Writer) WritePath(w io.Writer, result application.PathResult, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		return writeJSON(w, result)
	case application.OutputText, "":
		colorize := colorEnabled(w)
		state := "already present"
		if result.Inserted {
			state = "inserted"
		}
		if result.Released {
			state += ", released"
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", result.Path, style(colorize, mutedStyle, "("+state+")"))
		for i, entry := range result.Entries {
			_, _ = fmt.Fprintf(w, "  %d  %s\n", i, entry)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (Writer) WriteSelection(w io.Writer, result application.TestResult, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		return writeJSON(w, result)
	case application.OutputText, "":
		colorize := colorEnabled(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "Test\tLine\tStatus")
		for _, sel := range result.Selections {
			for _, m := range sel.Kept {
				_, _ = fmt.Fprintf(tw, "%s.%s\t%d\t%s\n", sel.Class.Name, m.Name, m.Line, style(colorize, keptStyle, "kept"))
			}
			for _, m := range sel.Removed {
				_, _ = fmt.Fprintf(tw, "%s.%s\t%d\t%s\n", sel.Class.Name, m.Name, m.Line, style(colorize, removedStyle, "removed"))
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, sel := range result.Selections {
			if len(sel.Missing) > 0 {
				_, _ = fmt.Fprintf(w, "\n%s: no such test on %s: %s\n",
					style(colorize, removedStyle, "Warning"), sel.Class.Name, strings.Join(sel.Missing, ", "))
			}
		}
		if len(result.Targets) > 0 {
			_, _ = fmt.Fprintf(w, "\n%s %s\n", style(colorize, labelStyle, "Targets:"), strings.Join(result.Targets, " "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// ShellJoin renders argv so it can be pasted into a POSIX shell.
func ShellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		parts[i] = quote(arg)
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return q
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func style(colorize bool, s lipgloss.Style, text string) string {
	if !colorize {
		return text
	}
	return s.Render(text)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
