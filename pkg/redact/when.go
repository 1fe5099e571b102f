package redact

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/httptape/pkg/tape"
)

// Env is the environment visible to When expressions.
type Env struct {
	Method  string            `expr:"method"`
	URL     string            `expr:"url"`
	Host    string            `expr:"host"`
	Path    string            `expr:"path"`
	Status  int               `expr:"status"`
	Headers map[string]string `expr:"headers"`
}

// NewEnv builds the expression environment for resp. Header names are
// lowercased; only the first value of each header is kept.
func NewEnv(resp *tape.Response) Env {
	env := Env{
		Status:  resp.StatusCode,
		Headers: make(map[string]string, len(resp.Header)),
	}
	for k, v := range resp.Header {
		if len(v) > 0 {
			env.Headers[strings.ToLower(k)] = v[0]
		}
	}
	if req := resp.Request; req != nil {
		env.Method = req.Method
		env.URL = req.URL
		if u, err := url.Parse(req.URL); err == nil {
			env.Host = strings.ToLower(u.Hostname())
			env.Path = u.Path
		}
	}
	return env
}

// When runs r only when expression evaluates to true, for example
//
//	host == "api.test" && status >= 400
//
// During lookups the response is synthetic (status 0, no headers), so
// conditions on response fields never hold there; keep URL rewrites
// conditioned on request fields only.
func When(expression string, r Redactor) (Redactor, error) {
	program, err := compile(expression)
	if err != nil {
		return nil, err
	}

	return func(resp *tape.Response) (*tape.Response, error) {
		out, err := expr.Run(program, NewEnv(resp))
		if err != nil {
			return nil, fmt.Errorf("eval %q: %w", expression, err)
		}
		if ok, _ := out.(bool); !ok {
			return resp, nil
		}
		return r(resp)
	}, nil
}

func compile(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	return program, nil
}
