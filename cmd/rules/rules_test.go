package rules

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/buger/goterm"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/workon/pkg/errors"
)

func mockOutput(t *testing.T) *bytes.Buffer {
	out := &bytes.Buffer{}
	stdout = out
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { stdout = os.Stdout })
	return out
}

func TestRun(t *testing.T) {
	out := mockOutput(t)
	require.NoError(t, afero.WriteFile(fs, "/proj/.gitignore",
		[]byte("# build output\n/build/\n*.log\n!keep.log\n"), 0644))
	require.NoError(t, fs.MkdirAll("/proj/src/build", 0755))

	err := run("/proj/.gitignore", "", []string{"__pycache__"}, []string{
		"build/", "src/build", "debug.log", "keep.log", "pkg/__pycache__/a.pyc",
	})
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	assert.Regexp(t, `^PATTERN\s+NEGATED\s+ANCHORED\s+DIRECTORY\s+EXPRESSION$`, lines[0])
	assert.Regexp(t, `^/build/\s+false\s+true\s+true\s+\^build/$`, lines[1])
	assert.Regexp(t, `^\*\.log\s+false\s+false\s+false\s+`, lines[2])
	assert.Regexp(t, `^!keep\.log\s+true\s+false\s+false\s+`, lines[3])

	excluded := goterm.Color("excluded", goterm.RED)
	included := goterm.Color("included", goterm.GREEN)
	assert.Contains(t, out.String(), "build/: "+excluded+"\n")
	assert.Contains(t, out.String(), "src/build: "+included+"\n")
	assert.Contains(t, out.String(), "debug.log: "+excluded+"\n")
	assert.Contains(t, out.String(), "keep.log: "+included+"\n")
	assert.Contains(t, out.String(), "pkg/__pycache__/a.pyc: "+excluded+"\n")
}

func TestRunMissingFile(t *testing.T) {
	mockOutput(t)
	err := run("/proj/.gitignore", "", nil, nil)

	msg, ok := errors.GetFriendlyMessage(err)
	require.True(t, ok)
	assert.Equal(t, `The rule file "/proj/.gitignore" doesn't exist.`, msg)
}
