package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/getmockd/httptape/pkg/tape"
)

// requestFlags are shared by the commands that take a request.
type requestFlags struct {
	method string
	data   string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.method, "request", "X", "GET", "HTTP method")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body")
}

func (f *requestFlags) build(rawURL string) (*tape.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	var body []byte
	if f.data != "" {
		body = []byte(f.data)
	}
	return tape.NewRequest(f.method, rawURL, body), nil
}
