package version

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/workon/pkg/errors"
)

func TestRun(t *testing.T) {
	out := &bytes.Buffer{}
	stdout = out
	defer func() { stdout = os.Stdout }()

	rsyncVersion = func(context.Context) (string, error) { return "3.2.7", nil }
	fswatchVersion = func(context.Context) (string, error) {
		return "", errors.New("not found")
	}

	run(context.Background())
	assert.Equal(t, "workon version:  dev\n"+
		"rsync    version: 3.2.7\n"+
		"fswatch  version: not installed\n", out.String())
}
