// Package redact scrubs captured responses before they are written as
// fixtures.
//
// A Redactor is any function from a response to a response. A Pipeline runs
// redactors in order over a private copy of the response, so the value seen
// by calling code is never changed. Redactors that rewrite the echoed
// request URL also change the fixture path, which is why lookups run the
// same pipeline over the outgoing request (see Pipeline.ApplyRequest).
package redact

import (
	"net/http"

	"github.com/getmockd/httptape/pkg/tape"
)

// Marker replaces redacted values.
const Marker = "REDACTED"

// Redactor transforms a response. It may modify resp in place and return it.
// Returning nil keeps resp unchanged.
type Redactor func(resp *tape.Response) (*tape.Response, error)

// Pipeline is an ordered list of redactors. A nil *Pipeline redacts nothing.
type Pipeline struct {
	steps []Redactor
}

// New creates a pipeline running rs in order.
func New(rs ...Redactor) *Pipeline {
	steps := make([]Redactor, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			steps = append(steps, r)
		}
	}
	return &Pipeline{steps: steps}
}

// Default returns the pipeline used when none is configured: cookies set by
// the server are replaced with Marker.
func Default() *Pipeline {
	return New(RedactCookies)
}

// None returns a pipeline that redacts nothing.
func None() *Pipeline {
	return &Pipeline{}
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}

// Steps returns a copy of the pipeline's redactors.
func (p *Pipeline) Steps() []Redactor {
	if p == nil {
		return nil
	}
	out := make([]Redactor, len(p.steps))
	copy(out, p.steps)
	return out
}

// Prepend returns a new pipeline running rs before p's steps.
func (p *Pipeline) Prepend(rs ...Redactor) *Pipeline {
	return New(append(append([]Redactor{}, rs...), p.Steps()...)...)
}

// Apply runs every step over a copy of resp and returns the result. A step
// error is returned as is.
func (p *Pipeline) Apply(resp *tape.Response) (*tape.Response, error) {
	if resp == nil {
		return nil, nil
	}
	out := resp.Clone()
	if p == nil {
		return out, nil
	}
	for _, step := range p.steps {
		next, err := step(out)
		if err != nil {
			return nil, err
		}
		if next != nil {
			out = next
		}
	}
	return out, nil
}

// ApplyRequest runs the pipeline over a synthetic response wrapping a copy of
// req and returns the resulting request. Lookups use it so that a request is
// fingerprinted exactly as its captured counterpart was.
func (p *Pipeline) ApplyRequest(req *tape.Request) (*tape.Request, error) {
	synthetic := &tape.Response{
		Header:  make(http.Header),
		Request: req.Clone(),
	}
	out, err := p.Apply(synthetic)
	if err != nil {
		return nil, err
	}
	if out.Request == nil {
		return req.Clone(), nil
	}
	return out.Request, nil
}
