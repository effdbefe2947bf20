// Package script provides a structured intermediate representation for
// generated scheduler scripts.
//
// Builders append typed statements (scheduler directives, shell commands,
// raw lines) to a Script; a single serializer renders the final text. This
// keeps planning logic testable against statements instead of string
// parsing, and confines the scheduler's directive syntax to one place.
package script

import (
	"fmt"
	"strings"
)

// Kind discriminates statement types within a Script.
type Kind string

const (
	// KindShebang is the interpreter line. Always rendered first.
	KindShebang Kind = "shebang"

	// KindDirective is a scheduler resource directive (#PBS ...).
	KindDirective Kind = "directive"

	// KindCommand is a plain shell command.
	KindCommand Kind = "command"

	// KindBackground is a shell command launched as a background process.
	KindBackground Kind = "background"

	// KindBarrier blocks until all background processes have completed.
	KindBarrier Kind = "barrier"
)

// Statement is one typed line of a generated script.
type Statement struct {
	Kind Kind

	// Flag is the directive flag (e.g. "-l", "-N") for KindDirective.
	Flag string

	// Text is the directive value or the command text.
	Text string
}

// Script is an ordered list of statements for one generated file.
type Script struct {
	statements []Statement
}

// New returns a Script seeded with the bash shebang.
func New() *Script {
	return &Script{statements: []Statement{{Kind: KindShebang, Text: "#!/bin/bash"}}}
}

// Directive appends a scheduler directive with the given flag and value.
func (s *Script) Directive(flag, value string) *Script {
	s.statements = append(s.statements, Statement{Kind: KindDirective, Flag: flag, Text: value})
	return s
}

// Directivef appends a formatted scheduler directive.
func (s *Script) Directivef(flag, format string, args ...any) *Script {
	return s.Directive(flag, fmt.Sprintf(format, args...))
}

// Command appends a shell command.
func (s *Script) Command(text string) *Script {
	s.statements = append(s.statements, Statement{Kind: KindCommand, Text: text})
	return s
}

// Commandf appends a formatted shell command.
func (s *Script) Commandf(format string, args ...any) *Script {
	return s.Command(fmt.Sprintf(format, args...))
}

// Background appends a command launched as a background process.
func (s *Script) Background(text string) *Script {
	s.statements = append(s.statements, Statement{Kind: KindBackground, Text: text})
	return s
}

// Barrier appends a join barrier that waits for all background processes.
func (s *Script) Barrier() *Script {
	s.statements = append(s.statements, Statement{Kind: KindBarrier})
	return s
}

// Statements returns the script's statements in order.
func (s *Script) Statements() []Statement {
	return s.statements
}

// Directives returns only the scheduler directives, in order.
func (s *Script) Directives() []Statement {
	var out []Statement
	for _, st := range s.statements {
		if st.Kind == KindDirective {
			out = append(out, st)
		}
	}
	return out
}

// Render serializes the script to its final text form.
//
// Directives render as "#PBS <flag> <value>" lines, background commands
// carry a trailing " &", and the barrier renders as "wait". Output is
// newline-terminated.
func (s *Script) Render() string {
	var b strings.Builder
	for _, st := range s.statements {
		switch st.Kind {
		case KindShebang:
			b.WriteString(st.Text)
		case KindDirective:
			b.WriteString("#PBS ")
			b.WriteString(st.Flag)
			if st.Text != "" {
				b.WriteString(" ")
				b.WriteString(st.Text)
			}
		case KindCommand:
			b.WriteString(st.Text)
		case KindBackground:
			b.WriteString(st.Text)
			b.WriteString(" &")
		case KindBarrier:
			b.WriteString("wait")
		}
		b.WriteString("\n")
	}
	return b.String()
}
