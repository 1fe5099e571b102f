package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/recording"
)

// FingerprintOutput represents JSON output format
type FingerprintOutput struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Path   string `json:"path"`
	File   string `json:"file"`
}

var (
	fingerprintReq    requestFlags
	fingerprintFormat string
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint [flags] URL",
	Short: "Print the fixture path a request is stored under",
	Example: `  httptape fingerprint https://api.example.com/v1/items
  httptape fingerprint -X POST -d '{"name":"x"}' https://api.example.com/v1/items`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := fingerprintReq.build(args[0])
		if err != nil {
			return err
		}

		format := cfg.Format
		if fingerprintFormat != "" {
			format = fingerprintFormat
		}
		codec, err := recording.CodecFor(recording.Format(format))
		if err != nil {
			return err
		}

		rel := cfg.Fingerprinter().Path(req)
		out := FingerprintOutput{
			Method: req.Method,
			URL:    req.URL,
			Path:   rel,
			File:   rel + codec.Ext(),
		}
		return printResult(cmd, out, func() {
			fmt.Fprintln(cmd.OutOrStdout(), out.File)
		})
	},
}

func init() {
	fingerprintReq.register(fingerprintCmd)
	fingerprintCmd.Flags().StringVar(&fingerprintFormat, "format", "", "Fixture format: json or yaml (default from config)")
	rootCmd.AddCommand(fingerprintCmd)
}
