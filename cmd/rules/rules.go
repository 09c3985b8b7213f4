package rules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/sidkik/workon/cmd/util"
	"github.com/sidkik/workon/pkg/config"
	"github.com/sidkik/workon/pkg/errors"
	"github.com/sidkik/workon/pkg/ignore"
)

// Mocked for unit testing.
var (
	stdout io.Writer = os.Stdout
	fs               = config.Fs()
)

// New creates a new `rules` command.
func New() *cobra.Command {
	var excludes []string
	var base string
	cmd := &cobra.Command{
		Use:   "rules RULE_FILE [PATH...]",
		Short: "Show how a rule file is compiled, and which paths it excludes",
		Long: "Compile a gitignore style rule file and print each rule along with\n" +
			"the expression passed to the file watcher. Any paths given are\n" +
			"checked against the rules, relative to the base directory.\n" +
			"Paths ending in a slash are treated as directories.",
		Args: cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], base, excludes, args[1:]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringSliceVarP(&excludes, "exclude", "e", nil,
		"Literal exclude patterns to check along with the rule file")
	cmd.Flags().StringVar(&base, "base", "",
		"Directory that the rules are relative to. Defaults to the rule file's directory.")
	return cmd
}

func run(ruleFile, base string, excludes, paths []string) error {
	ruleFile, err := filepath.Abs(ruleFile)
	if err != nil {
		return errors.WithContext(err, "get absolute path")
	}

	if base == "" {
		base = filepath.Dir(ruleFile)
	}
	base, err = filepath.Abs(base)
	if err != nil {
		return errors.WithContext(err, "get absolute path")
	}

	rules, err := ignore.Load(fs, excludes, ruleFile, base)
	if err != nil {
		if notFound, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			return errors.NewFriendlyError("The rule file %q doesn't exist.", notFound.Path)
		}
		return errors.WithContext(err, "load rules")
	}

	table := goterm.NewTable(0, 8, 2, ' ', 0)
	fmt.Fprintln(table, "PATTERN\tNEGATED\tANCHORED\tDIRECTORY\tEXPRESSION")
	for _, rule := range rules.Rules {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n", rule.Pattern,
			strconv.FormatBool(rule.Negated), strconv.FormatBool(rule.Anchored),
			strconv.FormatBool(rule.DirectoryOnly), rule.Expression())
	}
	fmt.Fprint(stdout, table.String())

	if len(paths) == 0 {
		return nil
	}

	fmt.Fprintln(stdout)
	ws := rules.WatchSet()
	for _, path := range paths {
		relPath := path
		if filepath.IsAbs(path) {
			relPath, err = filepath.Rel(base, path)
			if err != nil {
				return errors.WithContext(err, "relative path")
			}
		}

		isDir := strings.HasSuffix(path, "/")
		if fi, err := fs.Stat(filepath.Join(base, relPath)); err == nil {
			isDir = isDir || fi.IsDir()
		}

		status := goterm.Color("included", goterm.GREEN)
		if ws.Excluded(relPath, isDir) {
			status = goterm.Color("excluded", goterm.RED)
		}
		fmt.Fprintf(stdout, "%s: %s\n", path, status)
	}
	return nil
}
