package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes command output in JSON or human-readable form.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	json   bool
	styles styles
}

type styles struct {
	errorStyle lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	bold       lipgloss.Style
	title      lipgloss.Style
	muted      lipgloss.Style
	key        lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		success:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warning:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		bold:       lipgloss.NewStyle().Bold(true),
		title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:      lipgloss.NewStyle().Faint(true),
		key:        lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// NewPrinter creates a Printer writing to writer.
// Errors and warnings share the same writer until WithStderr is called.
func NewPrinter(writer io.Writer, jsonMode bool, color bool) *Printer {
	return &Printer{
		w:      writer,
		errW:   writer,
		json:   jsonMode,
		styles: newStyles(color),
	}
}

// WithStderr routes human-mode errors and warnings to w.
// JSON mode keeps them on the main writer as structured objects.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// IsJSON returns true if the printer is in JSON mode.
func (p *Printer) IsJSON() bool {
	return p.json
}

// Success prints data as JSON, or its "message" key in human mode.
func (p *Printer) Success(data map[string]any) error {
	if p.json {
		return p.WriteJSON(data)
	}
	if msg, ok := data["message"].(string); ok {
		mustWrite(fmt.Fprintln(p.w, p.styles.success.Render(msg)))
		return nil
	}
	for key, val := range data {
		mustWrite(fmt.Fprintf(p.w, "%s: %v\n", p.styles.bold.Render(key), val))
	}
	return nil
}

// Error prints err. JSON mode emits {"error": "...", "code": N} on stdout.
func (p *Printer) Error(err error) {
	exitErr := &ExitError{}
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitUserError, Message: err.Error()}
	}
	if p.json {
		mustWrite(p.w.Write(ErrorJSON(exitErr.Message, exitErr.Code)))
		mustWrite(fmt.Fprintln(p.w))
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.errorStyle.Render("Error"), exitErr.Message))
}

// Warn prints a warning to the error writer. No-op in JSON mode, where
// warnings are carried inside the structured report instead.
func (p *Printer) Warn(format string, args ...any) {
	if p.json {
		return
	}
	msg := fmt.Sprintf(format, args...)
	mustWrite(fmt.Fprintf(p.errW, "%s: %s\n", p.styles.warning.Render("Warning"), msg))
}

// Print formats and writes to the output without a newline.
func (p *Printer) Print(format string, args ...any) {
	mustWrite(fmt.Fprintf(p.w, format, args...))
}

// Println writes a line to the output.
func (p *Printer) Println(args ...any) {
	mustWrite(fmt.Fprintln(p.w, args...))
}

// Raw writes text verbatim, adding a trailing newline if it lacks one.
func (p *Printer) Raw(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	mustWrite(io.WriteString(p.w, text))
}

// WriteJSON encodes data as indented JSON.
func (p *Printer) WriteJSON(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorJSON returns JSON-formatted error bytes: {"code": N, "error": "message"}.
func ErrorJSON(message string, code int) []byte {
	result, _ := json.Marshal(map[string]any{"error": message, "code": code})
	return result
}

// Section renders a section header with an underline.
func (p *Printer) Section(title string) {
	mustWrite(fmt.Fprintln(p.w))
	mustWrite(fmt.Fprintln(p.w, p.styles.title.Render(title)))
	mustWrite(fmt.Fprintln(p.w, p.styles.muted.Render(strings.Repeat("─", len(title)))))
}

// KeyValue renders "Key: Value".
func (p *Printer) KeyValue(key, value string) {
	mustWrite(fmt.Fprintf(p.w, "%s %s\n", p.styles.key.Render(key+":"), value))
}

// Table renders rows under bold headers with padded columns.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = p.styles.bold.Render(padRight(h, widths[i]))
	}
	mustWrite(fmt.Fprintln(p.w, strings.Join(cells, "  ")))

	for _, row := range rows {
		cells = cells[:0]
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			cells = append(cells, padRight(cell, widths[i]))
		}
		mustWrite(fmt.Fprintln(p.w, strings.TrimRight(strings.Join(cells, "  "), " ")))
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// mustWrite panics if a write to stdout, stderr or a buffer fails.
func mustWrite(_ int, err error) {
	if err != nil {
		panic(fmt.Sprintf("write failed: %v", err))
	}
}
