package errors

import (
	goErrors "errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.Nil(t, WithContext(nil, "ignored"))

	root := FileNotFound{Path: "/tmp/missing"}
	err := WithContext(WithContext(root, "read rules"), "load session")
	assert.EqualError(t, err, `load session: read rules: "/tmp/missing" does not exist`)
	assert.Equal(t, root, RootCause(err))

	var notFound FileNotFound
	assert.True(t, As(err, &notFound))
	assert.Equal(t, "/tmp/missing", notFound.Path)
}

func TestGetFriendlyMessage(t *testing.T) {
	friendly := NewFriendlyError("Rule file %q not found.", ".gitignore")
	msg, ok := GetFriendlyMessage(WithContext(friendly, "load rules"))
	assert.True(t, ok)
	assert.Equal(t, `Rule file ".gitignore" not found.`, msg)

	_, ok = GetFriendlyMessage(New("plain"))
	assert.False(t, ok)
}

func TestExecutionFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    ExecutionFailure
		expMsg string
	}{
		{
			name:   "ExitCode",
			err:    ExecutionFailure{Command: []string{"rsync", "-aic"}, ExitCode: 23},
			expMsg: `"rsync -aic" exited with status 23`,
		},
		{
			name: "ExitCodeWithOutput",
			err: ExecutionFailure{Command: []string{"rsync"}, ExitCode: 12,
				Output: "rsync error: error in rsync protocol data stream\n"},
			expMsg: "\"rsync\" exited with status 12:\nrsync error: error in rsync protocol data stream",
		},
		{
			name:   "NotFound",
			err:    ExecutionFailure{Command: []string{"fswatch"}, Err: exec.ErrNotFound},
			expMsg: `"fswatch" failed: executable file not found in $PATH`,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.EqualError(t, test.err, test.expMsg)
		})
	}

	wrapped := WithContext(ExecutionFailure{Command: []string{"fswatch"}, Err: exec.ErrNotFound}, "watch")
	assert.True(t, goErrors.Is(wrapped, exec.ErrNotFound))
}
