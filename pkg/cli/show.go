package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/recording"
	"github.com/getmockd/httptape/pkg/util"
)

var showMaxBody int

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Print a decoded fixture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fx, err := recording.LoadFile(args[0])
		if err != nil {
			return err
		}
		resp, err := fx.ToResponse()
		if err != nil {
			return err
		}

		return printResult(cmd, fx, func() {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", fx.Request.Method, fx.Request.URL)
			fmt.Fprintf(out, "Recorded %s (%s)\n", humanize.Time(fx.RecordedAt), fx.RecordedAt.Format("2006-01-02 15:04:05Z07:00"))
			fmt.Fprintln(out)

			status := resp.Status
			if status == "" {
				status = fmt.Sprint(resp.StatusCode)
			}
			fmt.Fprintln(out, status)
			names := make([]string, 0, len(resp.Header))
			for name := range resp.Header {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				for _, v := range resp.Header[name] {
					fmt.Fprintf(out, "%s: %s\n", name, v)
				}
			}
			if len(resp.Body) > 0 {
				fmt.Fprintln(out)
				if fx.Response.BodyEncoding == recording.DataEncodingBase64 {
					fmt.Fprintf(out, "<%s binary body>\n", humanize.Bytes(uint64(len(resp.Body))))
					return
				}
				fmt.Fprintln(out, util.TruncateBody(string(resp.Body), showMaxBody))
			}
		})
	},
}

func init() {
	showCmd.Flags().IntVar(&showMaxBody, "max-body", util.MaxDisplayBodySize, "Truncate the body after this many bytes")
	rootCmd.AddCommand(showCmd)
}
