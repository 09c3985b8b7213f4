package ignore

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// Ranges narrower than this are written out character by character in
	// globs.
	expandRangeBelow = 64

	// Negated classes covering more characters than this are rendered as the
	// alternation of their complement, since glob lists have to spell out
	// every character.
	maxNegatedList = 256
)

// classRange is an inclusive range of runes in a bracket expression.
type classRange struct {
	lo, hi rune
}

// parseClass parses the bracket expression that starts after the `[` at
// pattern[start]. A `]` right after the opening bracket (or its negation) is
// a literal, as is a `-` that starts or ends the class. Backslashes escape
// the next character. It returns false if the bracket is never closed.
func parseClass(pattern string, start int) (ranges []classRange, negated bool, end int, ok bool) {
	i := start
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		negated = true
		i++
	}

	next := func() (rune, bool) {
		if i >= len(pattern) {
			return 0, false
		}
		r, w := utf8.DecodeRuneInString(pattern[i:])
		i += w
		if r != '\\' {
			return r, true
		}
		if i >= len(pattern) {
			return 0, false
		}
		r, w = utf8.DecodeRuneInString(pattern[i:])
		i += w
		return r, true
	}

	for first := true; i < len(pattern); first = false {
		if pattern[i] == ']' && !first {
			return ranges, negated, i + 1, true
		}

		lo, ok := next()
		if !ok {
			return nil, false, 0, false
		}

		hi := lo
		if i+1 < len(pattern) && pattern[i] == '-' && pattern[i+1] != ']' {
			i++
			if hi, ok = next(); !ok {
				return nil, false, 0, false
			}
		}
		ranges = append(ranges, classRange{lo, hi})
	}
	return nil, false, 0, false
}

// normalizeRanges sorts and merges ranges. Reversed ranges are empty and are
// dropped.
func normalizeRanges(ranges []classRange) []classRange {
	var valid []classRange
	for _, r := range ranges {
		if r.lo <= r.hi {
			valid = append(valid, r)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].lo < valid[j].lo })

	var merged []classRange
	for _, r := range valid {
		if n := len(merged); n > 0 && r.lo <= merged[n-1].hi+1 {
			if r.hi > merged[n-1].hi {
				merged[n-1].hi = r.hi
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// withoutRune removes `x` from normalized ranges.
func withoutRune(ranges []classRange, x rune) []classRange {
	var res []classRange
	for _, r := range ranges {
		if x < r.lo || x > r.hi {
			res = append(res, r)
			continue
		}
		if r.lo < x {
			res = append(res, classRange{r.lo, x - 1})
		}
		if x < r.hi {
			res = append(res, classRange{x + 1, r.hi})
		}
	}
	return res
}

// complement returns every valid rune that isn't in the normalized `ranges`.
func complement(ranges []classRange) []classRange {
	excluded := normalizeRanges(append(append([]classRange(nil), ranges...),
		classRange{0xD800, 0xDFFF}))

	var res []classRange
	var next rune
	for _, r := range excluded {
		if r.lo > next {
			res = append(res, classRange{next, r.lo - 1})
		}
		next = r.hi + 1
	}
	if next <= utf8.MaxRune {
		res = append(res, classRange{next, utf8.MaxRune})
	}
	return res
}

func rangeSize(ranges []classRange) int {
	var n int
	for _, r := range ranges {
		n += int(r.hi-r.lo) + 1
	}
	return n
}

// classSet returns the characters a class token matches (or, for negated
// classes, the characters it rejects). Classes never match a separator.
func classSet(tok token) []classRange {
	if tok.negated {
		return normalizeRanges(append(append([]classRange(nil), tok.ranges...),
			classRange{'/', '/'}))
	}
	return withoutRune(normalizeRanges(tok.ranges), '/')
}

// matchesNothing reports whether the token is a class that can't match any
// character.
func (tok token) matchesNothing() bool {
	return tok.kind == class && !tok.negated && len(classSet(tok)) == 0
}

// globClass renders a class token in github.com/gobwas/glob syntax. A glob
// class is either a single range or a list of characters, so anything else
// becomes an alternation of those.
func globClass(tok token) string {
	set := classSet(tok)
	if !tok.negated {
		return globAlternatives(set)
	}
	if rangeSize(set) <= maxNegatedList {
		return "[!" + globList(expandRanges(set)) + "]"
	}
	return globAlternatives(complement(set))
}

func globAlternatives(ranges []classRange) string {
	var singles []rune
	var pieces []string
	for _, r := range ranges {
		if r.hi-r.lo < expandRangeBelow {
			singles = append(singles, expandRanges([]classRange{r})...)
			continue
		}

		// A leading `!` would read as negation.
		lo := r.lo
		if lo == '!' {
			singles = append(singles, lo)
			lo++
		}
		pieces = append(pieces, "["+string(lo)+"-"+string(r.hi)+"]")
	}

	if len(singles) != 0 {
		pieces = append([]string{"[" + globList(singles) + "]"}, pieces...)
	}
	if len(pieces) == 1 {
		return pieces[0]
	}
	return "{" + strings.Join(pieces, ",") + "}"
}

// globList renders the body of a glob character list. The glob lexer reads
// the first character unescaped and treats it as the start of a range if a
// `-` follows, so a `-` always comes first.
func globList(runes []rune) string {
	var b strings.Builder
	var dash bool
	for _, r := range runes {
		switch r {
		case '-':
			dash = true
			continue
		case '\\', ']', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	if dash {
		return "-" + b.String()
	}
	return b.String()
}

func expandRanges(ranges []classRange) []rune {
	var runes []rune
	for _, r := range ranges {
		for c := r.lo; c <= r.hi; c++ {
			runes = append(runes, c)
		}
	}
	return runes
}

// exprClass renders a class token as a POSIX bracket expression. Characters
// that are special inside brackets are placed where they're literal: `]`
// first, `-` last, and `^` anywhere but first. A backslash is doubled, which
// is a backslash both to POSIX, where it's listed twice, and to Go's regexp.
func exprClass(tok token) string {
	var closeBracket, openBracket, backslash, caret, dash bool
	special := func(r rune) bool {
		switch r {
		case ']':
			closeBracket = true
		case '[':
			openBracket = true
		case '\\':
			backslash = true
		case '^':
			caret = true
		case '-':
			dash = true
		default:
			return false
		}
		return true
	}

	var plain strings.Builder
	for _, r := range classSet(tok) {
		lo, hi := r.lo, r.hi
		for lo <= hi && special(lo) {
			lo++
		}
		for hi >= lo && special(hi) {
			hi--
		}

		switch {
		case lo > hi:
		case lo == hi:
			plain.WriteRune(lo)
		default:
			plain.WriteRune(lo)
			plain.WriteByte('-')
			plain.WriteRune(hi)
		}
	}

	var body strings.Builder
	if closeBracket {
		body.WriteByte(']')
	}
	body.WriteString(plain.String())
	if openBracket {
		body.WriteByte('[')
	}
	if backslash {
		body.WriteString(`\\`)
	}

	prefix := "["
	if tok.negated {
		prefix = "[^"
	}

	if caret {
		if body.Len() == 0 && !tok.negated {
			if !dash {
				return `\^`
			}
			return "[-^]"
		}
		body.WriteByte('^')
	}
	if dash {
		body.WriteByte('-')
	}
	return prefix + body.String() + "]"
}
