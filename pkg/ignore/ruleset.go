package ignore

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sidkik/workon/pkg/errors"
)

// ProjectMarker is excluded from transfers, but changes to it should still
// trigger a sync, so it's dropped from the watch exclusions.
const ProjectMarker = ".project"

// RuleSet contains everything that decides which paths are left alone by a
// session.
type RuleSet struct {
	// Excludes are passed verbatim to the sync executor.
	Excludes []string

	// RuleFile is the gitignore style file the rules were compiled from. It's
	// also handed to the executor, which applies it itself.
	RuleFile string

	// Rules are the compiled lines of RuleFile, in file order.
	Rules []*Rule
}

// Load builds a RuleSet from the literal excludes and the optional rule file.
// A relative rule file is resolved against `basePath`, which must be
// absolute if it's set.
func Load(fs afero.Fs, excludes []string, ruleFile, basePath string) (RuleSet, error) {
	rs := RuleSet{Excludes: append([]string{}, excludes...)}
	if ruleFile == "" {
		return rs, nil
	}

	if basePath != "" && !filepath.IsAbs(basePath) {
		return RuleSet{}, errors.InvalidBasePath{Path: basePath}
	}
	if basePath != "" && !filepath.IsAbs(ruleFile) {
		ruleFile = filepath.Join(basePath, ruleFile)
	}

	contents, err := afero.ReadFile(fs, ruleFile)
	if err != nil {
		if os.IsNotExist(err) {
			return RuleSet{}, errors.FileNotFound{Path: ruleFile}
		}
		return RuleSet{}, errors.WithContext(err, "read rule file")
	}

	rs.RuleFile = ruleFile
	rs.Rules = Parse(contents)
	return rs, nil
}

// Parse compiles each line of a rule file. Lines that don't compile to a
// rule are skipped.
func Parse(contents []byte) []*Rule {
	var rules []*Rule
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	for scanner.Scan() {
		if rule := Compile(scanner.Text()); rule != nil {
			rules = append(rules, rule)
		}
	}
	return rules
}

// TransferExcludes returns the literal excludes for the sync executor.
func (rs RuleSet) TransferExcludes() []string {
	return append([]string{}, rs.Excludes...)
}

// WatchSet returns the exclusions used to filter change notifications.
func (rs RuleSet) WatchSet() WatchSet {
	var literals []string
	var literalRules []*Rule
	for _, exclude := range rs.Excludes {
		if exclude == ProjectMarker {
			continue
		}
		literals = append(literals, exclude)
		if rule := compileLiteral(exclude); rule != nil {
			literalRules = append(literalRules, rule)
		}
	}
	return WatchSet{
		Literals:     literals,
		Rules:        rs.Rules,
		literalRules: literalRules,
	}
}

// compileLiteral compiles an exclude given on the command line. Unlike a
// rule file line, a leading `#` isn't a comment.
func compileLiteral(exclude string) *Rule {
	if strings.HasPrefix(exclude, "#") {
		rule := Compile(`\` + exclude)
		if rule != nil {
			rule.Pattern = exclude
		}
		return rule
	}
	return Compile(exclude)
}

// WatchSet is the set of exclusions applied to change notifications.
type WatchSet struct {
	// Literals are the excludes the set was built from, minus the project
	// marker. They're matched as gitignore patterns, the way rsync matches
	// them.
	Literals []string

	Rules []*Rule

	literalRules []*Rule
}

// Expressions renders the set for an external watcher that matches regular
// expressions against paths under `root`. Literal excludes come first, then
// the rule file. Negated rules are returned as includes so that the
// watcher's own precedence decides between them.
func (ws WatchSet) Expressions(root string) (excludes, includes []string) {
	for _, rule := range append(append([]*Rule{}, ws.literalRules...), ws.Rules...) {
		if rule.Negated {
			includes = append(includes, rule.expression(root))
		} else {
			excludes = append(excludes, rule.expression(root))
		}
	}
	return excludes, includes
}

// Excluded returns whether a change to `relPath` should be ignored. A path
// is excluded if it matches any exclusion, unless a negated rule matches it
// as well.
func (ws WatchSet) Excluded(relPath string, isDir bool) bool {
	rules := append(append([]*Rule{}, ws.literalRules...), ws.Rules...)

	excluded := false
	for _, rule := range rules {
		if !rule.Match(relPath, isDir) {
			continue
		}
		if rule.Negated {
			return false
		}
		excluded = true
	}
	return excluded
}
