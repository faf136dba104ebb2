package directive

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// Marker is the token that flags a directive line after the comment prefix.
const Marker = "$JAFF"

// Block is one scanned directive block: the verbatim marker lines, the
// verbatim body between them, and the parsed command line.
type Block struct {
	Directive *Directive

	// HeaderLine and EndLine are kept verbatim (newline included) so the
	// assembler can retain the markers in the output.
	HeaderLine string
	EndLine    string

	// Body is the verbatim text between the marker lines.
	Body string

	// Line is the 1-based line number of the command line.
	Line int
}

// Segment is one piece of a scanned template: literal pass-through text,
// or a directive block. Exactly one of the two fields is set.
type Segment struct {
	Literal string
	Block   *Block
}

// Scan splits a template into literal segments and directive blocks. A
// directive line is a line whose trimmed text starts with the comment
// prefix immediately followed by the marker token. Nesting is not
// supported; a block left open at end of input is fatal.
func Scan(text, comment string) ([]Segment, error) {
	prefix := comment + Marker

	var (
		segs    []Segment
		literal strings.Builder
		open    *Block
		body    strings.Builder
	)

	lineNo := 0
	for _, line := range splitAfterLines(text) {
		lineNo++
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, prefix) {
			if open != nil {
				body.WriteString(line)
			} else {
				literal.WriteString(line)
			}
			continue
		}

		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		if firstField(rest) == "END" {
			if open == nil {
				return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "line %d: END with no open block", lineNo)
			}
			open.Body = body.String()
			open.EndLine = line
			segs = append(segs, Segment{Block: open})
			open = nil
			body.Reset()
			continue
		}

		if open != nil {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock,
				"line %d: directive opened inside the block started at line %d", lineNo, open.Line)
		}

		d, err := ParseLine(rest)
		if err != nil {
			return nil, errors.WithMessagef(err, "line %d", lineNo)
		}

		if literal.Len() > 0 {
			segs = append(segs, Segment{Literal: literal.String()})
			literal.Reset()
		}
		open = &Block{
			Directive:  d,
			HeaderLine: line,
			Line:       lineNo,
		}
	}

	if open != nil {
		return nil, errors.Wrapf(gojaff.ErrUnterminated, "block started at line %d", open.Line)
	}
	if literal.Len() > 0 {
		segs = append(segs, Segment{Literal: literal.String()})
	}
	return segs, nil
}

// splitAfterLines splits keeping the trailing newline on each line and
// dropping the empty remainder after a final newline.
func splitAfterLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func firstField(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// Indent returns the leading whitespace of a line.
func Indent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
