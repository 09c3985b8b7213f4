package ignore

import (
	"path/filepath"
	"regexp"
	"strings"
)

type tokenKind int

const (
	literal tokenKind = iota

	// star matches anything within a single path segment.
	star

	// doubleStar matches anything, including separators.
	doubleStar

	// anyDirs is `**/`: zero or more whole directories.
	anyDirs

	// question matches one character other than a separator.
	question

	separator

	// class is a bracket expression such as `[a-z]` or `[!0-9]`.
	class
)

type token struct {
	kind tokenKind
	text string

	// Only set for classes.
	ranges  []classRange
	negated bool
}

// Separator expressions for regular expression output. Paths are matched in
// slash form, but the platform separator is accepted as well where it differs.
var (
	sepExpr    = "/"
	nonSepExpr = "[^/]"
)

func init() {
	if filepath.Separator != '/' {
		sep := regexp.QuoteMeta(string(filepath.Separator))
		sepExpr = "[/" + sep + "]"
		nonSepExpr = "[^/" + sep + "]"
	}
}

// tokenize splits a pattern into glob tokens. Consecutive literal characters
// are merged into a single token.
func tokenize(pattern string) []token {
	var tokens []token
	addLiteral := func(s string) {
		if n := len(tokens); n > 0 && tokens[n-1].kind == literal {
			tokens[n-1].text += s
			return
		}
		tokens = append(tokens, token{kind: literal, text: s})
	}

	n := len(pattern)
	for i := 0; i < n; {
		c := pattern[i]
		i++

		switch c {
		case '*':
			if i < n && pattern[i] == '*' {
				i++
				if i < n && pattern[i] == '/' {
					i++
					// `a/**/**/b` is the same as `a/**/b`.
					if last := len(tokens) - 1; last >= 0 && tokens[last].kind == anyDirs {
						continue
					}
					tokens = append(tokens, token{kind: anyDirs})
				} else {
					tokens = append(tokens, token{kind: doubleStar})
				}
			} else {
				tokens = append(tokens, token{kind: star})
			}
		case '?':
			tokens = append(tokens, token{kind: question})
		case '/':
			tokens = append(tokens, token{kind: separator})
		case '[':
			ranges, negated, end, ok := parseClass(pattern, i)
			if !ok {
				// An unterminated bracket is just a bracket.
				addLiteral("[")
				continue
			}
			i = end
			tokens = append(tokens, token{kind: class, ranges: ranges, negated: negated})
		case '\\':
			if i < n {
				addLiteral(string(pattern[i]))
				i++
			} else {
				addLiteral(`\`)
			}
		default:
			addLiteral(string(c))
		}
	}
	return tokens
}

// renderGlob renders tokens in the syntax of github.com/gobwas/glob, with `/`
// as the only separator.
func renderGlob(tokens []token) string {
	var b strings.Builder
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.kind {
		case literal:
			b.WriteString(escapeGlob(tok.text))
		case star:
			b.WriteString("*")
		case doubleStar:
			b.WriteString("**")
		case anyDirs:
			b.WriteString("**/")
		case question:
			b.WriteString("?")
		case separator:
			// `a/**/b` also matches `a/b`.
			if i+1 < len(tokens) && tokens[i+1].kind == anyDirs {
				b.WriteString("{/,/**/}")
				i++
				continue
			}
			b.WriteString("/")
		case class:
			b.WriteString(globClass(tok))
		}
	}
	return b.String()
}

// renderExpression renders tokens as an unanchored POSIX extended regular
// expression.
func renderExpression(tokens []token) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.kind {
		case literal:
			b.WriteString(regexp.QuoteMeta(tok.text))
		case star:
			b.WriteString(nonSepExpr + "*")
		case doubleStar:
			b.WriteString(".*")
		case anyDirs:
			b.WriteString("(.*" + sepExpr + ")?")
		case question:
			b.WriteString(nonSepExpr)
		case separator:
			b.WriteString(sepExpr)
		case class:
			b.WriteString(exprClass(tok))
		}
	}
	return b.String()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '{', '}', ',', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
