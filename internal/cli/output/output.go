// Package output renders command results as a table, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by the -o flag
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateFormat checks that format is a known output format
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// Printer writes results to out in one format
type Printer struct {
	out    io.Writer
	format string
	header *color.Color
}

// New returns a printer for format. theme selects the table header colour.
func New(out io.Writer, format, theme string) (*Printer, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	return &Printer{
		out:    out,
		format: strings.ToLower(format),
		header: headerColor(theme),
	}, nil
}

// Format returns the printer's output format
func (p *Printer) Format() string {
	return p.format
}

// Print renders v. In table format fill is called to build the table; the
// first row added is treated as the header.
func (p *Printer) Print(v interface{}, fill func(t *uitable.Table)) error {
	switch p.format {
	case FormatJSON:
		prettyJSON, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		fmt.Fprintln(p.out, string(prettyJSON))

	case FormatYAML:
		yamlBytes, err := toYAML(v)
		if err != nil {
			return fmt.Errorf("error formatting output: %w", err)
		}
		fmt.Fprint(p.out, string(yamlBytes))

	default:
		table := uitable.New()
		table.MaxColWidth = 60
		table.Wrap = true
		fill(table)
		p.writeTable(table)
	}
	return nil
}

// Message prints a line only in table format, so structured output stays
// parseable.
func (p *Printer) Message(format string, args ...interface{}) {
	if p.format != FormatTable {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) writeTable(table *uitable.Table) {
	rendered := table.String()
	if rendered == "" {
		return
	}

	lines := strings.SplitN(rendered, "\n", 2)
	fmt.Fprintln(p.out, p.header.Sprint(lines[0]))
	if len(lines) == 2 {
		fmt.Fprintln(p.out, lines[1])
	}
}

// toYAML goes through JSON first so field names match the JSON output
func toYAML(v interface{}) ([]byte, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func headerColor(theme string) *color.Color {
	if theme == "dark" {
		return color.New(color.FgCyan, color.Bold)
	}
	return color.New(color.FgBlue, color.Bold)
}
