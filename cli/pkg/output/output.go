package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/safetyline/hsg245-stack/common/hsg245"
)

// Out and ErrOut are swapped in tests.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// Format is the --output flag value.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (table, json, yaml)", s)
	}
}

func Success(format string, a ...interface{}) {
	successColor.Fprintf(Out, "✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(ErrOut, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(Out, format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Fprintf(Out, "⚠ "+format+"\n", a...)
}

// Field prints an aligned "label: value" line, skipping empty values.
func Field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(Out, "%s %s\n", dimColor.Sprintf("%-22s", label+":"), value)
}

// Heading prints a bold section title.
func Heading(title string) {
	headerColor.Fprintln(Out, title)
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(v interface{}) error {
	enc := yaml.NewEncoder(Out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// Structured prints v as JSON or YAML. It returns false for FormatTable so
// the caller can render its own table.
func Structured(f Format, v interface{}) (bool, error) {
	switch f {
	case FormatJSON:
		return true, JSON(v)
	case FormatYAML:
		return true, YAML(v)
	default:
		return false, nil
	}
}

// PriorityColor maps a backend priority to its display colour.
func PriorityColor(priority string) *color.Color {
	switch priority {
	case "High":
		return color.New(color.FgRed, color.Bold)
	case "Medium":
		return color.New(color.FgYellow, color.Bold)
	case "Low":
		return color.New(color.FgGreen, color.Bold)
	default:
		return dimColor
	}
}

// StageColor maps a lifecycle stage to its display colour.
func StageColor(s hsg245.Stage) *color.Color {
	switch s {
	case hsg245.StageCompleted:
		return color.New(color.FgGreen)
	case hsg245.StageInvestigated:
		return color.New(color.FgCyan)
	case hsg245.StageAssessed:
		return color.New(color.FgBlue)
	case hsg245.StageCreated:
		return color.New(color.FgYellow)
	default:
		return dimColor
	}
}

type Table struct {
	headers []string
	rows    [][]string
	colors  map[int]func(string) *color.Color
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
		colors:  map[int]func(string) *color.Color{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// ColorColumn colours every cell of column i with pick(cell).
func (t *Table) ColorColumn(i int, pick func(string) *color.Color) {
	t.colors[i] = pick
}

func (t *Table) Render() {
	// Widths come from the raw text; colour is applied after padding.
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(Out, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(Out)

	for i := range t.headers {
		fmt.Fprint(Out, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(Out)

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			padded := fmt.Sprintf("%-*s  ", widths[i], cell)
			if pick, ok := t.colors[i]; ok {
				padded = pick(cell).Sprint(padded)
			}
			fmt.Fprint(Out, padded)
		}
		fmt.Fprintln(Out)
	}
}
