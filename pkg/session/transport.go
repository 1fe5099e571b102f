package session

import (
	"net/http"

	"github.com/getmockd/httptape/pkg/tape"
)

// Transport returns an http.RoundTripper that sends requests through c, so a
// plain *http.Client is captured and replayed like any other caller.
func (c *Controller) Transport() http.RoundTripper {
	return &transport{c: c}
}

type transport struct {
	c *Controller
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	treq, err := tape.FromHTTP(req)
	if err != nil {
		return nil, err
	}
	resp, err := t.c.Do(req.Context(), treq)
	if err != nil {
		return nil, err
	}
	return resp.ToHTTP(req), nil
}
