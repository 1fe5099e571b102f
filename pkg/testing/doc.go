// Package testing provides helpers for using httptape in Go tests.
//
// A Tape wraps a session.Controller for one test. Vignette starts a capture
// or replay session rooted at a directory and ends it when the test
// finishes, so the first run records and later runs replay:
//
//	func TestCheckout(t *testing.T) {
//	    tp := httptapetesting.New(t).Vignette("testdata/checkout")
//	    client := tp.Client()
//
//	    resp, err := client.Get("https://api.example.com/v1/cart")
//	    ...
//	    tp.ChangeState()
//	    resp, err = client.Post("https://api.example.com/v1/cart", ...)
//	    ...
//	    tp.AssertCalledTimes(t, "GET", "https://api.example.com/v1/cart", 1)
//	}
//
// # Writing Fixtures
//
// Fixture builds a fixture by hand and writes it where a request would be
// looked up, which is handy for error responses that are hard to capture:
//
//	httptapetesting.Fixture("GET", "https://api.example.com/v1/cart").
//	    WithStatus(503).
//	    WithJSON(map[string]string{"error": "maintenance"}).
//	    Write(t, "testdata/checkout/0")
//
// # Assertions
//
// Every request made through Client is logged with the session mode it ran
// in:
//
//	tp.AssertMode(t, session.Mocking)
//	tp.AssertCalled(t, "GET", "https://api.example.com/v1/cart")
//	tp.AssertNotCalled(t, "DELETE", "https://api.example.com/v1/cart")
//
//	for _, req := range tp.Requests() {
//	    req.AssertJSONBody(t, expected)
//	}
package testing
