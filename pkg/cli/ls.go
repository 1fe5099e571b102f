package cli

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/cli/internal/output"
	"github.com/getmockd/httptape/pkg/recording"
)

var lsMatch string

var lsCmd = &cobra.Command{
	Use:   "ls [DIR]",
	Short: "List the fixtures below a directory",
	Example: `  httptape ls
  httptape ls testdata/fixtures --match 'api.example.com/**'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Fixtures
		if len(args) == 1 {
			dir = args[0]
		}
		if lsMatch != "" && !doublestar.ValidatePattern(lsMatch) {
			return fmt.Errorf("invalid pattern %q", lsMatch)
		}

		all, err := recording.Scan(dir)
		if err != nil {
			return err
		}
		fixtures := make([]recording.FixtureInfo, 0, len(all))
		for _, f := range all {
			if lsMatch != "" {
				if ok, _ := doublestar.Match(lsMatch, f.Rel); !ok {
					continue
				}
			}
			fixtures = append(fixtures, f)
		}
		logger.Debug("scanned fixtures", "dir", dir, "count", len(fixtures))

		return printResult(cmd, fixtures, func() {
			if len(fixtures) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No fixtures in %s\n", dir)
				return
			}
			w := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "PATH\tMETHOD\tSTATUS\tSIZE")
			unreadable := 0
			for _, f := range fixtures {
				method := f.Method
				if method == "" {
					method = "?"
					unreadable++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Rel, method, output.Status(f.StatusCode), humanize.Bytes(uint64(f.Size))) //nolint:gosec // sizes are never negative
			}
			_ = w.Flush()
			if unreadable > 0 {
				output.Warn(cmd.ErrOrStderr(), "%d file(s) could not be decoded", unreadable)
			}
		})
	},
}

func init() {
	lsCmd.Flags().StringVar(&lsMatch, "match", "", "Only list fixtures whose path matches this glob")
	rootCmd.AddCommand(lsCmd)
}
