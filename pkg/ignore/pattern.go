package ignore

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Rule is a compiled ignore pattern.
type Rule struct {
	// Pattern is the line the rule was compiled from.
	Pattern string

	// Negated is set for patterns starting with `!`. The rule still matches
	// the same paths; it's up to the consumer to treat a match as "keep".
	Negated bool

	// Anchored rules only match relative to the root of the tree. Unanchored
	// rules match starting at any path segment.
	Anchored bool

	// DirectoryOnly rules only match directories (and therefore everything
	// below them).
	DirectoryOnly bool

	tokens []token
	glob   glob.Glob
}

// Compile turns a gitignore style pattern into a Rule. It returns nil if the
// pattern doesn't match anything: blank lines, comments, malformed wildcards
// and classes with no matchable character are all silently dropped.
func Compile(pattern string) *Rule {
	original := pattern
	pattern = strings.TrimRight(pattern, "\r\n")

	if strings.TrimSpace(pattern) == "" || pattern[0] == '#' {
		return nil
	}

	// Wildcard runs longer than two are never valid.
	if strings.Contains(pattern, "***") {
		return nil
	}

	negated := false
	if pattern[0] == '!' {
		negated = true
		pattern = pattern[1:]
	}

	if !validDoubleStars(pattern) {
		return nil
	}

	// A lone slash doesn't match any file or directory.
	if strings.TrimRight(pattern, " \t") == "/" || pattern == "" {
		return nil
	}

	directoryOnly := strings.HasSuffix(pattern, "/")
	anchored := strings.Contains(pattern[:len(pattern)-1], "/")

	pattern = strings.TrimPrefix(pattern, "/")
	matchAll := false
	if strings.HasPrefix(pattern, "**") {
		pattern = pattern[2:]
		anchored = false
		matchAll = pattern == "" || pattern == "/"
	}
	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	if strings.HasPrefix(pattern, `\#`) {
		pattern = pattern[1:]
	}
	pattern = trimTrailingSpaces(pattern)

	var tokens []token
	switch {
	case matchAll:
		tokens = []token{{kind: doubleStar}}
	case pattern == "":
		return nil
	default:
		tokens = tokenize(pattern)
	}

	for _, tok := range tokens {
		if tok.matchesNothing() {
			return nil
		}
	}

	g, err := glob.Compile(renderGlob(tokens), '/')
	if err != nil {
		return nil
	}

	return &Rule{
		Pattern:       original,
		Negated:       negated,
		Anchored:      anchored,
		DirectoryOnly: directoryOnly,
		tokens:        tokens,
		glob:          g,
	}
}

// Match returns whether the rule matches `path`, which is relative to the
// root of the tree. A rule matches a path if it matches the path itself, or
// any of the directories containing it.
func (r *Rule) Match(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	if strings.HasSuffix(path, "/") {
		isDir = true
	}
	path = strings.Trim(strings.TrimPrefix(path, "./"), "/")
	if path == "" || path == "." {
		return false
	}

	segments := strings.Split(path, "/")
	starts := len(segments)
	if r.Anchored {
		starts = 1
	}

	for start := 0; start < starts; start++ {
		for end := start + 1; end <= len(segments); end++ {
			if !r.glob.Match(strings.Join(segments[start:end], "/")) {
				continue
			}

			// If the match stops short of the last segment, it matched one of
			// the parent directories.
			if end == len(segments) && r.DirectoryOnly && !isDir {
				continue
			}
			return true
		}
	}
	return false
}

// Glob returns the glob the rule matches path segments with.
func (r *Rule) Glob() string {
	return renderGlob(r.tokens)
}

// Expression returns the rule as a POSIX extended regular expression over
// slash separated relative paths.
func (r *Rule) Expression() string {
	return r.expression("")
}

// expression renders the rule for paths that start with `root`. Anchored
// rules are tied to the root, while unanchored rules can start after any
// separator.
func (r *Rule) expression(root string) string {
	var prefix string
	switch {
	case r.Anchored && root == "":
		prefix = "^"
	case r.Anchored:
		prefix = "^" + regexp.QuoteMeta(strings.TrimRight(filepath.ToSlash(root), "/")) + sepExpr
	default:
		prefix = "(^|" + sepExpr + ")"
	}

	// Directory rules require something inside the directory, since the
	// consumer can't tell files and directories apart.
	suffix := "(" + sepExpr + "|$)"
	if r.DirectoryOnly {
		suffix = sepExpr
	}
	return prefix + renderExpression(r.tokens) + suffix
}

func (r *Rule) String() string {
	var flags []string
	if r.Negated {
		flags = append(flags, "negated")
	}
	if r.Anchored {
		flags = append(flags, "anchored")
	}
	if r.DirectoryOnly {
		flags = append(flags, "directory")
	}
	return fmt.Sprintf("%s [%s]", r.Glob(), strings.Join(flags, ","))
}

// validDoubleStars checks that every `**` is at the start or end of the
// pattern, or is surrounded by slashes.
func validDoubleStars(pattern string) bool {
	for i := 0; i+1 < len(pattern); i++ {
		if pattern[i] != '*' || pattern[i+1] != '*' {
			continue
		}

		atStart := i == 0
		atEnd := i == len(pattern)-2
		if !atStart && !atEnd && (pattern[i-1] != '/' || pattern[i+2] != '/') {
			return false
		}
		i++
	}
	return true
}

// trimTrailingSpaces drops unescaped trailing spaces. An escaped trailing
// space is kept, without its backslash, and stops any further stripping.
func trimTrailingSpaces(pattern string) string {
	b := []byte(pattern)
	strip := true
	for i := len(b) - 1; i > 1 && b[i] == ' '; i-- {
		if b[i-1] == '\\' {
			b = append(b[:i-1], b[i:]...)
			i--
			strip = false
		} else if strip {
			b = b[:i]
		}
	}
	return string(b)
}
