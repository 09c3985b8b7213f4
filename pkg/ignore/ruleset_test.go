package ignore

import (
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/workon/pkg/errors"
)

const gitignore = `# build output
/build/
*.log
!keep.log

a***b
node_modules
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/.gitignore", []byte(gitignore), 0644))

	tests := []struct {
		name        string
		ruleFile    string
		basePath    string
		expRuleFile string
		expPatterns []string
		expError    error
	}{
		{
			name: "NoRuleFile",
		},
		{
			name:        "AbsoluteRuleFile",
			ruleFile:    "/proj/.gitignore",
			expRuleFile: "/proj/.gitignore",
			expPatterns: []string{"/build/", "*.log", "!keep.log", "node_modules"},
		},
		{
			name:        "RelativeToBase",
			ruleFile:    ".gitignore",
			basePath:    "/proj",
			expRuleFile: "/proj/.gitignore",
			expPatterns: []string{"/build/", "*.log", "!keep.log", "node_modules"},
		},
		{
			name:     "RelativeBase",
			ruleFile: ".gitignore",
			basePath: "proj",
			expError: errors.InvalidBasePath{Path: "proj"},
		},
		{
			name:     "Missing",
			ruleFile: "/proj/.missing",
			expError: errors.FileNotFound{Path: "/proj/.missing"},
		},
	}

	excludes := []string{"__pycache__", ".git/", ".git/*"}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			rs, err := Load(fs, excludes, test.ruleFile, test.basePath)
			if test.expError != nil {
				assert.Equal(t, test.expError, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, excludes, rs.Excludes)
			assert.Equal(t, test.expRuleFile, rs.RuleFile)

			var patterns []string
			for _, rule := range rs.Rules {
				patterns = append(patterns, rule.Pattern)
			}
			assert.Equal(t, test.expPatterns, patterns)
		})
	}
}

func TestTransferExcludesKeepProjectMarker(t *testing.T) {
	rs := RuleSet{Excludes: []string{"__pycache__", ProjectMarker}}
	assert.Equal(t, []string{"__pycache__", ProjectMarker}, rs.TransferExcludes())

	ws := rs.WatchSet()
	assert.Equal(t, []string{"__pycache__"}, ws.Literals)
	assert.False(t, ws.Excluded(ProjectMarker, false))

	// The transfer list is left alone.
	assert.Equal(t, []string{"__pycache__", ProjectMarker}, rs.Excludes)
}

func TestWatchSetExpressions(t *testing.T) {
	rs := RuleSet{
		Excludes: []string{".git/", ProjectMarker},
		Rules:    Parse([]byte(gitignore)),
	}

	excludes, includes := rs.WatchSet().Expressions("/home/me/proj")
	assert.Equal(t, []string{
		`(^|/)\.git/`,
		`^/home/me/proj/build/`,
		`(^|/)[^/]*\.log(/|$)`,
		`(^|/)node_modules(/|$)`,
	}, excludes)
	assert.Equal(t, []string{`(^|/)keep\.log(/|$)`}, includes)
}

func TestWatchersAgreeOnLiterals(t *testing.T) {
	rs := RuleSet{Excludes: []string{"__pycache__", ".git/", ".git/*", "#scratch"}}
	ws := rs.WatchSet()

	root := "/home/me/proj"
	excludes, includes := ws.Expressions(root)
	assert.Empty(t, includes)
	require.Len(t, excludes, 4)

	var compiled []*regexp.Regexp
	for _, expr := range excludes {
		compiled = append(compiled, regexp.MustCompile(expr))
	}
	matchesAny := func(path string) bool {
		for _, re := range compiled {
			if re.MatchString(path) {
				return true
			}
		}
		return false
	}

	paths := []struct {
		rel   string
		isDir bool
	}{
		{rel: "digit.txt"},
		{rel: "legit.py"},
		{rel: "src/gitx/main.go"},
		{rel: ".git", isDir: true},
		{rel: ".git/HEAD"},
		{rel: "pkg/__pycache__/a.pyc"},
		{rel: "#scratch"},
		{rel: "notes/#scratch"},
	}
	for _, p := range paths {
		// Directories are reported with their contents by external
		// watchers, so check a child path for them.
		full := root + "/" + p.rel
		if p.isDir {
			full += "/x"
		}
		assert.Equal(t, ws.Excluded(p.rel, p.isDir), matchesAny(full), p.rel)
	}
	assert.False(t, ws.Excluded("digit.txt", false))
	assert.True(t, ws.Excluded("notes/#scratch", false))
}

func TestWatchSetExcluded(t *testing.T) {
	rs := RuleSet{
		Excludes: []string{"__pycache__", ".git/", ".git/*", ProjectMarker},
		Rules:    Parse([]byte(gitignore)),
	}
	ws := rs.WatchSet()

	tests := []struct {
		path  string
		isDir bool
		exp   bool
	}{
		{path: ".git", isDir: true, exp: true},
		{path: ".git/config", exp: true},
		{path: "pkg/__pycache__/mod.pyc", exp: true},
		{path: "build/out.o", exp: true},
		{path: "src/build/out.o", exp: false},
		{path: "logs/debug.log", exp: true},
		{path: "keep.log", exp: false},
		{path: "web/node_modules/react/index.js", exp: true},
		{path: "src/main.go", exp: false},
		{path: ProjectMarker, exp: false},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, ws.Excluded(test.path, test.isDir), test.path)
	}
}
