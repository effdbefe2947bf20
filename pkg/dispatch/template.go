package dispatch

import (
	"fmt"
	"strings"
)

// Command template placeholders. The per-item command contract with the
// external tool is solely that both placeholders are present; tool-specific
// flags are opaque to the builder.
const (
	PlaceholderInfile  = "{infile}"
	PlaceholderOutfile = "{outfile}"
)

type templatePart interface {
	append(dst *strings.Builder, infile, outfile string)
}

type literalPart string

type infilePart struct{}

type outfilePart struct{}

func (p literalPart) append(dst *strings.Builder, _, _ string) {
	dst.WriteString(string(p))
}

func (p infilePart) append(dst *strings.Builder, infile, _ string) {
	dst.WriteString(infile)
}

func (p outfilePart) append(dst *strings.Builder, _, outfile string) {
	dst.WriteString(outfile)
}

// CommandTemplate is a compiled per-item command template.
//
// Supported placeholders:
//   - `{infile}`: the item's input path from the manifest
//   - `{outfile}`: the item's derived output path from the manifest
//
// Both must appear at least once; a template that ignores either one would
// produce slots whose outputs cannot be reconciled afterward.
type CommandTemplate struct {
	raw   string
	parts []templatePart
}

// CompileTemplate parses and validates a command template.
func CompileTemplate(template string) (*CommandTemplate, error) {
	if !strings.Contains(template, PlaceholderInfile) {
		return nil, fmt.Errorf("%w: command template missing %s placeholder", ErrConfig, PlaceholderInfile)
	}
	if !strings.Contains(template, PlaceholderOutfile) {
		return nil, fmt.Errorf("%w: command template missing %s placeholder", ErrConfig, PlaceholderOutfile)
	}

	var parts []templatePart
	s := template
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open == -1 {
			parts = append(parts, literalPart(s))
			break
		}
		if open > 0 {
			parts = append(parts, literalPart(s[:open]))
			s = s[open:]
		}

		switch {
		case strings.HasPrefix(s, PlaceholderInfile):
			parts = append(parts, infilePart{})
			s = s[len(PlaceholderInfile):]
		case strings.HasPrefix(s, PlaceholderOutfile):
			parts = append(parts, outfilePart{})
			s = s[len(PlaceholderOutfile):]
		default:
			// Unrecognized braces belong to the tool invocation itself
			// (awk programs, shell expansions); pass them through.
			parts = append(parts, literalPart(s[:1]))
			s = s[1:]
		}
	}

	return &CommandTemplate{raw: template, parts: parts}, nil
}

// Apply substitutes the input and output paths into the template.
func (t *CommandTemplate) Apply(infile, outfile string) string {
	var b strings.Builder
	for _, part := range t.parts {
		part.append(&b, infile, outfile)
	}
	return b.String()
}

// String returns the raw template text.
func (t *CommandTemplate) String() string {
	return t.raw
}
