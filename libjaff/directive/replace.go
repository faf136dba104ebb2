package directive

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// ReplaceRule is one compiled rewrite of a block's replace chain. Rules
// are compiled eagerly when the command line is parsed so a bad pattern
// fails before any text is generated.
type ReplaceRule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Back-references in replacement text are written \1, \2, ... and
// rewritten to the ${1} form ReplaceAllString expands.
var backrefRx = regexp.MustCompile(`\\(\d+)`)

func CompileReplace(pattern, replacement string) (ReplaceRule, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return ReplaceRule{}, errors.Wrapf(gojaff.ErrInvalidReplace, "pattern %q: %v", pattern, err)
	}
	return ReplaceRule{
		Pattern:     rx,
		Replacement: backrefRx.ReplaceAllString(replacement, `$${${1}}`),
	}, nil
}

func (r ReplaceRule) Apply(text string) string {
	return r.Pattern.ReplaceAllString(text, r.Replacement)
}

// ApplyChain runs the rules in order over the whole block text.
func ApplyChain(rules []ReplaceRule, text string) string {
	for _, r := range rules {
		text = r.Apply(text)
	}
	return text
}
