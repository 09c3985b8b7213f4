package version

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/workon/pkg/fswatch"
	"github.com/sidkik/workon/pkg/rsync"
	"github.com/sidkik/workon/pkg/version"
)

// Mocked for unit testing.
var (
	stdout io.Writer = os.Stdout

	rsyncVersion = func(ctx context.Context) (string, error) {
		return rsync.New(rsync.Options{}).CheckVersion(ctx)
	}
	fswatchVersion = func(ctx context.Context) (string, error) {
		return fswatch.NewProcess("", log.StandardLogger()).CheckVersion(ctx)
	}
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of workon and the tools it runs.",
		Long: "Print the version of workon, along with the versions of\n" +
			"rsync and fswatch that it finds in the PATH.",
		Run: func(cmd *cobra.Command, _ []string) {
			run(cmd.Context())
		},
	}
}

func run(ctx context.Context) {
	fmt.Fprintf(stdout, "workon version:  %s\n", version.Version)
	printTool(ctx, "rsync", rsyncVersion)
	printTool(ctx, "fswatch", fswatchVersion)
}

func printTool(ctx context.Context, name string, getVersion func(context.Context) (string, error)) {
	v, err := getVersion(ctx)
	if err != nil {
		log.WithError(err).Debugf("Failed to get %s version", name)
		v = "not installed"
	}
	fmt.Fprintf(stdout, "%-8s version: %s\n", name, v)
}
