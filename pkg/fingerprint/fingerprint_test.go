package fingerprint

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/httptape/pkg/tape"
)

func TestPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		url    string
		want   string
	}{
		{"simple get", "GET", "http://api.test/items", "api.test/items"},
		{"nested path", "GET", "https://api.test/v1/users/42", "api.test/v1/users/42"},
		{"empty path", "GET", "http://api.test", "api.test/index"},
		{"root path", "GET", "http://api.test/", "api.test/index"},
		{"trailing slash", "GET", "http://api.test/items/", "api.test/items"},
		{"port", "GET", "http://localhost:8080/health", "localhost_8080/health"},
		{"uppercase host", "GET", "http://API.Test/items", "api.test/items"},
		{"lowercase method", "get", "http://api.test/items", "api.test/items"},
		{"head method", "HEAD", "http://api.test/items", "api.test/items-HEAD"},
		{"delete method", "DELETE", "http://api.test/items/1", "api.test/items/1-DELETE"},
		{"dot segments", "GET", "http://api.test/a/./b/../c", "api.test/a/c"},
		{"encoded slash", "GET", "http://api.test/a%2Fb/c", "api.test/a_b/c"},
		{"encoded space", "GET", "http://api.test/my%20file", "api.test/my_file"},
		{"banned chars", "GET", "http://api.test/a:b/c*d", "api.test/a_b/c_d"},
		{"unicode host", "GET", "http://bücher.example/x", "xn--bcher-kva.example/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Path(tape.NewRequest(tt.method, tt.url, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathIsDeterministic(t *testing.T) {
	req := tape.NewRequest(http.MethodPost, "http://api.test/items?b=2&a=1", []byte(`{"name":"x"}`))
	first := Path(req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Path(req))
	}
	assert.Equal(t, first, Path(req.Clone()))
}

func TestQueryChangesPath(t *testing.T) {
	plain := Path(tape.NewRequest("GET", "http://api.test/items", nil))
	page1 := Path(tape.NewRequest("GET", "http://api.test/items?page=1", nil))
	page2 := Path(tape.NewRequest("GET", "http://api.test/items?page=2", nil))

	assert.NotEqual(t, plain, page1)
	assert.NotEqual(t, page1, page2)
	assert.True(t, strings.HasPrefix(page1, "api.test/items-"))
	assert.Len(t, strings.TrimPrefix(page1, "api.test/items-"), HashLen)
}

func TestQueryOrderDoesNotMatter(t *testing.T) {
	a := Path(tape.NewRequest("GET", "http://api.test/items?a=1&b=2", nil))
	b := Path(tape.NewRequest("GET", "http://api.test/items?b=2&a=1", nil))
	assert.Equal(t, a, b)
}

func TestMalformedQueryChangesPath(t *testing.T) {
	plain := Path(tape.NewRequest("GET", "http://api.test/items", nil))

	tests := []struct {
		name  string
		query string
		other string
	}{
		{"semicolon separator", "a=1;b=2", "a=1;b=3"},
		{"semicolon in value", "filter=x;y", "filter=x;z"},
		{"bad escape", "id=%zz", "id=%yy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Path(tape.NewRequest("GET", "http://api.test/items?"+tt.query, nil))
			other := Path(tape.NewRequest("GET", "http://api.test/items?"+tt.other, nil))

			assert.NotEqual(t, plain, got)
			assert.NotEqual(t, got, other)
			assert.Equal(t, got, Path(tape.NewRequest("GET", "http://api.test/items?"+tt.query, nil)))
		})
	}

	a := Path(tape.NewRequest("GET", "http://api.test/items?x=1&id=%zz", nil))
	b := Path(tape.NewRequest("GET", "http://api.test/items?id=%zz&x=1", nil))
	assert.Equal(t, a, b)
}

func TestMethodChangesPath(t *testing.T) {
	get := Path(tape.NewRequest("GET", "http://api.test/items", nil))
	post := Path(tape.NewRequest("POST", "http://api.test/items", nil))
	assert.Equal(t, "api.test/items", get)
	assert.Equal(t, "api.test/items-POST", post)
}

func TestBodyChangesPath(t *testing.T) {
	a := Path(tape.NewRequest("POST", "http://api.test/items", []byte(`{"name":"a"}`)))
	b := Path(tape.NewRequest("POST", "http://api.test/items", []byte(`{"name":"b"}`)))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, "-POST"))

	// GET bodies are ignored.
	g1 := Path(tape.NewRequest("GET", "http://api.test/items", []byte("one")))
	g2 := Path(tape.NewRequest("GET", "http://api.test/items", []byte("two")))
	assert.Equal(t, g1, g2)
}

func TestJSONBodyIsCanonicalized(t *testing.T) {
	a := Path(tape.NewRequest("POST", "http://api.test/items", []byte(`{"a":1,"b":2}`)))
	b := Path(tape.NewRequest("POST", "http://api.test/items", []byte(`{ "b": 2, "a": 1 }`)))
	assert.Equal(t, a, b)
}

func TestFormBodyIsCanonicalized(t *testing.T) {
	a := tape.NewRequest("POST", "http://api.test/login", []byte("user=x&pass=y"))
	a.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	b := tape.NewRequest("POST", "http://api.test/login", []byte("pass=y&user=x"))
	b.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, Path(a), Path(b))
}

func TestLongSegmentsAreBounded(t *testing.T) {
	long := strings.Repeat("a", 300)
	f := Fingerprinter{}

	got := f.Path(tape.NewRequest("GET", "http://api.test/"+long+"/"+long+"?q=1", nil))
	for _, seg := range strings.Split(got, "/") {
		assert.LessOrEqual(t, len(seg), DefaultMaxSegment, seg)
	}

	name := got[strings.LastIndex(got, "/")+1:]
	assert.LessOrEqual(t, len(name), DefaultMaxSegment-ExtReserve)

	// Different tails of an over-long stem still map to different files.
	other := f.Path(tape.NewRequest("GET", "http://api.test/"+long+"/"+long+"b?q=1", nil))
	assert.NotEqual(t, got, other)
	assert.Equal(t, got, f.Path(tape.NewRequest("GET", "http://api.test/"+long+"/"+long+"?q=1", nil)))
}

func TestLongStemKeepsMethod(t *testing.T) {
	f := Fingerprinter{MaxSegment: 40}
	got := f.Path(tape.NewRequest("PATCH", "http://api.test/"+strings.Repeat("x", 80), []byte("{}")))
	name := got[strings.LastIndex(got, "/")+1:]
	assert.True(t, strings.HasSuffix(name, "-PATCH"))
	assert.LessOrEqual(t, len(name), 40-ExtReserve)
}

func TestUnparseableURL(t *testing.T) {
	a := Path(tape.NewRequest("GET", "://not a url", nil))
	b := Path(tape.NewRequest("GET", "://not a url", nil))
	c := Path(tape.NewRequest("GET", "relative/path", nil))

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, UnparsedDir+"/"))
	assert.True(t, strings.HasPrefix(c, UnparsedDir+"/"))
	assert.NotEqual(t, a, c)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "_", sanitize(".."))
	assert.Equal(t, "v1_", sanitize("v1."))
	assert.Equal(t, "a_b", sanitize("a\tb"))
	assert.Equal(t, "é", sanitize("é"))
}
