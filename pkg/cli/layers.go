package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/cli/internal/output"
	"github.com/getmockd/httptape/pkg/recording"
)

var layersCmd = &cobra.Command{
	Use:   "layers ROOT",
	Short: "List the numbered layers of a vignette",
	Long: `List the integer-named layer directories under a vignette root, in the
order ChangeState stacks them, with the number of fixtures in each.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layers, err := recording.ListLayers(args[0])
		if err != nil {
			return err
		}
		if layers == nil {
			layers = []recording.Layer{}
		}
		return printResult(cmd, layers, func() {
			if len(layers) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No layers in %s\n", args[0])
				return
			}
			w := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "INDEX\tPATH\tFIXTURES")
			for _, l := range layers {
				fmt.Fprintf(w, "%d\t%s\t%d\n", l.Index, l.Path, l.Fixtures)
			}
			_ = w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(layersCmd)
}
