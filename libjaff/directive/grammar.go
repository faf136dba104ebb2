// Package directive finds and parses template directive blocks: comment
// lines of the form "<comment>$JAFF <CMD> ..." terminated by
// "<comment>$JAFF END", with the body lines between them.
package directive

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// Cmd is the directive command kind.
type Cmd int32

const (
	CmdSub Cmd = iota
	CmdRepeat
	CmdGet
	CmdHas
	CmdReduce
)

func (c Cmd) String() string {
	switch c {
	case CmdSub:
		return "SUB"
	case CmdRepeat:
		return "REPEAT"
	case CmdGet:
		return "GET"
	case CmdHas:
		return "HAS"
	case CmdReduce:
		return "REDUCE"
	default:
		return "?"
	}
}

var cmdKeywords = map[string]Cmd{
	"SUB":    CmdSub,
	"REPEAT": CmdRepeat,
	"GET":    CmdGet,
	"HAS":    CmdHas,
	"REDUCE": CmdReduce,
}

// Directive is one parsed command line.
type Directive struct {
	Cmd     Cmd
	Vars    []string // bound variable names (SUB scalars, REPEAT/REDUCE vars, GET props, HAS category)
	Sources []string // property names from the IN clause
	Target  string   // entity name from the FOR clause (GET) or trailing tokens (HAS)
	Sort    bool
	DEDT    bool
	Replace []ReplaceRule
}

// HasVar reports whether name is among the bound variables.
func (d *Directive) HasVar(name string) bool {
	for _, v := range d.Vars {
		if v == name {
			return true
		}
	}
	return false
}

// Command-line argument grammar. Terms are whitespace-delimited tokens;
// commas separate variable and source lists, square brackets delimit the
// modifier list. Modifier tokens therefore cannot contain ',', '[' or ']'.
type argsAST struct {
	Vars []string `parser:"@Term (',' @Term)*"`
	In   []string `parser:"('IN' @Term (',' @Term)*)?"`
	For  []string `parser:"('FOR' @Term+)?"`
	Tail []string `parser:"@Term*"`
	Mods []string `parser:"('[' @Term* ']')?"`
}

var argsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Punct", Pattern: `[,\[\]]`},
	{Name: "Term", Pattern: `[^\s,\[\]]+`},
	{Name: "whitespace", Pattern: `[ \t]+`},
})

var parseArgs = participle.MustBuild[argsAST](
	participle.Lexer(argsLexer),
)

// ParseLine parses the text after the marker token on a directive command
// line ("<CMD> <args>") into a Directive. END lines are handled by the
// scanner and never reach here.
func ParseLine(line string) (*Directive, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.Wrap(gojaff.ErrMalformedBlock, "empty directive line")
	}
	cmd, ok := cmdKeywords[fields[0]]
	if !ok {
		return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "unknown command %q", fields[0])
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	if rest == "" {
		return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "%s requires arguments", cmd)
	}

	ast, err := parseArgs.ParseString("", rest)
	if err != nil {
		return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "%s arguments %q: %v", cmd, rest, err)
	}

	d := &Directive{
		Cmd:     cmd,
		Vars:    ast.Vars,
		Sources: ast.In,
	}
	if err := d.applyMods(ast.Mods); err != nil {
		return nil, err
	}

	switch cmd {
	case CmdSub:
		if len(ast.In) > 0 || len(ast.For) > 0 || len(ast.Tail) > 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "SUB takes only scalar names: %q", rest)
		}

	case CmdRepeat:
		if len(ast.In) != 1 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "REPEAT requires exactly one IN property: %q", rest)
		}
		if len(ast.For) > 0 || len(ast.Tail) > 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "unexpected tokens in REPEAT: %q", rest)
		}

	case CmdReduce:
		if len(ast.In) != len(ast.Vars) {
			return nil, errors.Wrapf(gojaff.ErrLengthMismatch,
				"REDUCE binds %d variables to %d properties", len(ast.Vars), len(ast.In))
		}
		if len(ast.For) > 0 || len(ast.Tail) > 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "unexpected tokens in REDUCE: %q", rest)
		}

	case CmdGet:
		if len(ast.For) == 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "FOR keyword not found in %q", rest)
		}
		if len(ast.In) > 0 || len(ast.Tail) > 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "unexpected tokens in GET: %q", rest)
		}
		d.Target = strings.Join(ast.For, " ")

	case CmdHas:
		if len(ast.Vars) != 1 || len(ast.Tail) == 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "HAS requires a category and a name: %q", rest)
		}
		if len(ast.In) > 0 || len(ast.For) > 0 {
			return nil, errors.Wrapf(gojaff.ErrMalformedBlock, "unexpected tokens in HAS: %q", rest)
		}
		d.Target = strings.Join(ast.Tail, " ")
	}

	return d, nil
}

func (d *Directive) applyMods(tokens []string) error {
	for i := 0; i < len(tokens); {
		switch tokens[i] {
		case "SORT":
			d.Sort = true
			i++

		case "DEDT":
			d.DEDT = true
			i++
			if i < len(tokens) && (tokens[i] == "TRUE" || tokens[i] == "FALSE") {
				d.DEDT = tokens[i] == "TRUE"
				i++
			}

		case "REPLACE":
			i++
			j := i
			for j < len(tokens) && !isModKeyword(tokens[j]) {
				j++
			}
			n := j - i
			if n == 0 || n%2 != 0 {
				return errors.Wrapf(gojaff.ErrInvalidReplace,
					"REPLACE needs pattern/replacement pairs, got %d token(s)", n)
			}
			for ; i < j; i += 2 {
				rule, err := CompileReplace(tokens[i], tokens[i+1])
				if err != nil {
					return err
				}
				d.Replace = append(d.Replace, rule)
			}

		default:
			return errors.Wrapf(gojaff.ErrMalformedBlock, "unknown modifier %q", tokens[i])
		}
	}
	return nil
}

func isModKeyword(tok string) bool {
	switch tok {
	case "SORT", "DEDT", "REPLACE":
		return true
	}
	return false
}
