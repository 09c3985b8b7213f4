package version

import (
	"context"
	"os/exec"
	"regexp"

	goversion "github.com/hashicorp/go-version"

	"github.com/sidkik/workon/pkg/errors"
)

// EmptyValue is reported by binaries built without a release version, such
// as `go install` builds and unit tests.
const EmptyValue = "dev"

// Version is the release tag. Release builds set it with
// `-ldflags "-X github.com/sidkik/workon/pkg/version.Version=<tag>"`.
var Version = EmptyValue

// versionPattern finds the first dotted version number in a tool's
// `--version` output, such as "rsync  version 3.2.7  protocol version 31" or
// "fswatch 1.17.1".
var versionPattern = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\b`)

// Parse extracts the version of an external tool from its `--version`
// output.
func Parse(output string) (*goversion.Version, error) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return nil, errors.New("no version number in %q", output)
	}
	return goversion.NewVersion(match[1])
}

// Detect runs `binary --version` and parses the result.
func Detect(ctx context.Context, binary string) (*goversion.Version, error) {
	cmd := exec.CommandContext(ctx, binary, "--version")
	out, err := cmd.Output()
	if err != nil {
		failure := errors.ExecutionFailure{Command: cmd.Args, Err: err}
		if exitErr, ok := err.(*exec.ExitError); ok {
			failure.ExitCode = exitErr.ExitCode()
			failure.Output = string(exitErr.Stderr)
			failure.Err = nil
		}
		return nil, failure
	}

	v, err := Parse(string(out))
	if err != nil {
		return nil, errors.WithContext(err, "parse version")
	}
	return v, nil
}

// AtLeast returns whether `v` is at least `minimum`. `minimum` must be a valid
// version.
func AtLeast(v *goversion.Version, minimum string) bool {
	return v.GreaterThanOrEqual(goversion.Must(goversion.NewVersion(minimum)))
}
