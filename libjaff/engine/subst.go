// Package engine resolves directive blocks against a generator source,
// one Engine per template file.
package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jaff-systems/gojaff/gojaff"
)

// idxRx matches positional index markers: $idx$ or $idx±N$.
var idxRx = regexp.MustCompile(`\$idx\s*([+-]\s*\d+)?\s*\$`)

type idxSpan struct {
	begin, end int
	offset     int
}

func findIdxSpans(line string) []idxSpan {
	var spans []idxSpan
	for _, m := range idxRx.FindAllStringSubmatchIndex(line, -1) {
		sp := idxSpan{begin: m[0], end: m[1]}
		if m[2] >= 0 {
			off := strings.ReplaceAll(line[m[2]:m[3]], " ", "")
			n, _ := strconv.Atoi(off)
			sp.offset = n
		}
		spans = append(spans, sp)
	}
	return spans
}

// substituteIdx replaces the idx markers with the given coordinates,
// positionally, right to left so earlier spans stay valid.
func substituteIdx(line string, spans []idxSpan, coords []int) string {
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		line = line[:sp.begin] + strconv.Itoa(coords[i]+sp.offset) + line[sp.end:]
	}
	return line
}

// substituteScalars resolves every $name$ / $name<op>N$ marker in line
// against the binding. All markers resolve against the same binding; a
// marker never sees another marker's output.
func substituteScalars(line string, binds map[string]gojaff.Scalar) (string, error) {
	if len(binds) == 0 {
		return line, nil
	}

	names := make([]string, 0, len(binds))
	for name := range binds {
		names = append(names, regexp.QuoteMeta(name))
	}
	// Longest first so a name that prefixes another cannot shadow it.
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	rx, err := regexp.Compile(`\$(` + strings.Join(names, "|") + `)(\s*[-+*/]\s*\d+)?\s*\$`)
	if err != nil {
		return "", errors.Wrap(gojaff.ErrMalformedBlock, err.Error())
	}

	var subErr error
	out := rx.ReplaceAllStringFunc(line, func(m string) string {
		groups := rx.FindStringSubmatch(m)
		val := binds[groups[1]]
		if groups[2] == "" {
			return val.Text
		}
		n, err := applyArith(val, groups[2], groups[1])
		if err != nil {
			if subErr == nil {
				subErr = err
			}
			return m
		}
		return strconv.FormatInt(n, 10)
	})
	if subErr != nil {
		return "", subErr
	}
	return out, nil
}

// applyArith evaluates "<op><int>" against an integer scalar. Division
// truncates toward zero.
func applyArith(val gojaff.Scalar, opNum, name string) (int64, error) {
	if !val.IsInt {
		return 0, errors.Wrapf(gojaff.ErrNotInteger, "$%s%s$ on value %q", name, opNum, val.Text)
	}
	opNum = strings.ReplaceAll(opNum, " ", "")
	op := opNum[0]
	n, err := strconv.ParseInt(opNum[1:], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(gojaff.ErrMalformedBlock, "$%s%s$", name, opNum)
	}
	switch op {
	case '+':
		return val.Int + n, nil
	case '-':
		return val.Int - n, nil
	case '*':
		return val.Int * n, nil
	case '/':
		if n == 0 {
			return 0, errors.Wrapf(gojaff.ErrMalformedBlock, "$%s%s$ divides by zero", name, opNum)
		}
		return val.Int / n, nil
	}
	return 0, errors.Wrapf(gojaff.ErrMalformedBlock, "$%s%s$", name, opNum)
}

// markerOf renders the plain marker form of a bound name.
func markerOf(name string) string {
	return "$" + name + "$"
}
