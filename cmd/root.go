package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/workon/cmd/rules"
	syncCmd "github.com/sidkik/workon/cmd/sync"
	"github.com/sidkik/workon/cmd/util"
	"github.com/sidkik/workon/cmd/version"
	"github.com/sidkik/workon/pkg/logging"
)

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(logging.VerboseEnv) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "workon",
		Short:        "Work on a project in one directory and mirror it into another",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		rules.New(),
		syncCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
