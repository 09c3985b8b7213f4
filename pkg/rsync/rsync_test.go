package rsync

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/session"
)

// fakeRsync records its arguments next to itself, prints two itemized
// changes, and exits with $FAKE_RSYNC_EXIT.
const fakeRsync = `#!/bin/sh
printf '%s\n' "$@" > "$(dirname "$0")/args"
if [ "$1" = "--version" ]; then
	echo "rsync  version ${FAKE_RSYNC_VERSION:-3.2.7}  protocol version 31"
	exit 0
fi
echo ">f+++++++++ main.go"
echo "*deleting   old.go"
echo ""
echo "some files vanished" >&2
exit ${FAKE_RSYNC_EXIT:-0}
`

func writeFakeRsync(t *testing.T) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "rsync")
	require.NoError(t, os.WriteFile(path, []byte(fakeRsync), 0755))
	return path
}

func recordedArgs(t *testing.T, binary string) []string {
	args, err := os.ReadFile(filepath.Join(filepath.Dir(binary), "args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(args), "\n"), "\n")
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name string
		req  session.Request
		exp  []string
	}{
		{
			name: "DryRun",
			req: session.Request{
				From:     "/src/proj",
				To:       "/dest/proj",
				Excludes: []string{"__pycache__", ".git/"},
				RuleFile: "/src/proj/.gitignore",
				DryRun:   true,
			},
			exp: []string{"rsync", "-aic", "--delete",
				"--exclude", "__pycache__", "--exclude", ".git/",
				"--filter", ":- /src/proj/.gitignore",
				"--dry-run", "/src/proj/", "/dest/proj"},
		},
		{
			name: "RealRun",
			req: session.Request{
				From:     "devbox:/srv/proj/",
				To:       "/src/proj",
				Excludes: []string{".project"},
			},
			exp: []string{"rsync", "-avzic", "--progress", "--delete",
				"--exclude", ".project", "devbox:/srv/proj/", "/src/proj"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Command("rsync", test.req))
		})
	}
}

func TestSync(t *testing.T) {
	binary := writeFakeRsync(t)
	out := &bytes.Buffer{}
	log, _ := logrusTest.NewNullLogger()
	e := New(Options{Binary: binary, Output: out, Log: log})

	req := session.Request{From: "/src/proj", To: "/dest/proj", DryRun: true}
	changed, err := e.Sync(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, Command(binary, req)[1:], recordedArgs(t, binary))

	assert.Contains(t, out.String(), "Running Rsync Dry")
	assert.Contains(t, out.String(), ">f+++++++++ main.go")
	assert.Contains(t, out.String(), "Done")
	assert.NotContains(t, out.String(), "some files vanished")
}

func TestSyncVanishedFiles(t *testing.T) {
	binary := writeFakeRsync(t)
	t.Setenv("FAKE_RSYNC_EXIT", "24")
	log, hook := logrusTest.NewNullLogger()
	e := New(Options{Binary: binary, Output: &bytes.Buffer{}, Log: log})

	changed, err := e.Sync(context.Background(), session.Request{From: "/src", To: "/dest"})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "vanished")
}

func TestSyncFailure(t *testing.T) {
	binary := writeFakeRsync(t)
	t.Setenv("FAKE_RSYNC_EXIT", "23")
	log, _ := logrusTest.NewNullLogger()
	e := New(Options{Binary: binary, Output: &bytes.Buffer{}, Log: log})

	req := session.Request{From: "/src", To: "/dest"}
	_, err := e.Sync(context.Background(), req)

	var failure errors.ExecutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 23, failure.ExitCode)
	assert.Equal(t, Command(binary, req), failure.Command)
	assert.Equal(t, "some files vanished\n", failure.Output)
}

func TestSyncMissingBinary(t *testing.T) {
	log, _ := logrusTest.NewNullLogger()
	e := New(Options{Binary: "workon-test-missing-rsync", Output: &bytes.Buffer{}, Log: log})

	_, err := e.Sync(context.Background(), session.Request{From: "/src", To: "/dest"})
	assert.True(t, errors.Is(err, exec.ErrNotFound))

	var failure errors.ExecutionFailure
	assert.True(t, errors.As(err, &failure))
}

func TestCheckVersion(t *testing.T) {
	binary := writeFakeRsync(t)
	log, hook := logrusTest.NewNullLogger()
	e := New(Options{Binary: binary, Log: log})

	v, err := e.CheckVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.2.7", v)
	assert.Empty(t, hook.AllEntries())

	t.Setenv("FAKE_RSYNC_VERSION", "2.6.9")
	v, err = e.CheckVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.6.9", v)
	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Message, "older than 3.0.0")
}

func TestCheckVersionMissing(t *testing.T) {
	log, _ := logrusTest.NewNullLogger()
	e := New(Options{Binary: "workon-test-missing-rsync", Log: log})

	_, err := e.CheckVersion(context.Background())
	_, ok := errors.GetFriendlyMessage(err)
	assert.True(t, ok)
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{max: 5}
	b.Write([]byte("hello "))
	b.Write([]byte("world"))
	assert.Equal(t, "world", b.String())
}
