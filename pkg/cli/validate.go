package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/config"
)

// ValidateOutput represents JSON output format
type ValidateOutput struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Check a config file against the schema",
	Long: `Check a config file against the schema and build every redaction rule in
it. Without FILE the file is discovered the same way other commands do.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			found, err := config.Discover(".")
			if err != nil {
				return err
			}
			if found == "" {
				return errors.New("no config file found")
			}
			path = found
		}

		out := ValidateOutput{Path: path, Valid: true}
		for _, err := range validateFile(path) {
			out.Valid = false
			out.Errors = append(out.Errors, err.Error())
		}

		if err := printResult(cmd, out, func() {
			if out.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: invalid\n", path)
			for _, e := range out.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
			}
		}); err != nil {
			return err
		}
		if !out.Valid {
			return errSilent
		}
		return nil
	},
}

// validateFile returns every problem found in path. Schema violations are
// reported one per issue.
func validateFile(path string) []error {
	c, err := config.LoadFromFile(path)
	if err != nil {
		var schemaErr *config.SchemaError
		if errors.As(err, &schemaErr) {
			errs := make([]error, 0, len(schemaErr.Issues))
			for _, issue := range schemaErr.Issues {
				errs = append(errs, issue)
			}
			return errs
		}
		return []error{err}
	}

	var errs []error
	if _, err := c.Codec(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Filter(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Pipeline(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
