package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/mockpath"
	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/redact"
	"github.com/getmockd/httptape/pkg/tape"
)

// ResolveOutput represents JSON output format
type ResolveOutput struct {
	Found bool     `json:"found"`
	Path  string   `json:"path"`
	Entry string   `json:"entry,omitempty"`
	Rel   string   `json:"rel"`
	Stack []string `json:"stack"`
}

var (
	resolveReq   requestFlags
	resolvePaths []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] URL",
	Short: "Show which fixture would answer a request",
	Long: `Show which fixture would answer a request during replay. Each --path adds
a stack entry; the first one given has the highest priority. Without --path
the configured fixtures directory is used.

The request is redacted with the configured pipeline before lookup, exactly
as a mocking session would.`,
	Example: `  httptape resolve https://api.example.com/v1/items
  httptape resolve -p testdata/checkout/1 -p testdata/checkout/0 https://api.example.com/v1/cart`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := resolveReq.build(args[0])
		if err != nil {
			return err
		}

		paths := resolvePaths
		if len(paths) == 0 {
			paths = []string{cfg.Fixtures}
		}
		stack := mockpath.NewStack(paths...)

		codec, err := cfg.Codec()
		if err != nil {
			return err
		}
		pipeline, err := cfg.Pipeline()
		if err != nil {
			return err
		}
		if pipeline == nil {
			pipeline = redact.Default()
		}
		resolver := recording.NewResolver(stack, recording.ResolverOptions{
			Pipeline:      pipeline,
			Codec:         codec,
			Fingerprinter: cfg.Fingerprinter(),
			MaxVariants:   cfg.MaxVariants,
			Logger:        logger,
		})

		out := ResolveOutput{Stack: stack.Entries()}
		m, err := resolver.Locate(req)
		var miss *tape.NoMockFoundError
		switch {
		case errors.As(err, &miss):
			out.Path = miss.Path
			out.Rel = cfg.Fingerprinter().Path(req)
		case err != nil:
			return err
		default:
			out.Found = true
			out.Path = m.Path
			out.Entry = m.Entry
			out.Rel = m.Rel
		}

		if err := printResult(cmd, out, func() {
			if out.Found {
				fmt.Fprintln(cmd.OutOrStdout(), out.Path)
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", miss)
		}); err != nil {
			return err
		}
		if !out.Found {
			return errSilent
		}
		return nil
	},
}

func init() {
	resolveReq.register(resolveCmd)
	resolveCmd.Flags().StringArrayVarP(&resolvePaths, "path", "p", nil, "Stack entry, highest priority first (repeatable)")
	rootCmd.AddCommand(resolveCmd)
}
