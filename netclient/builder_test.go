package netclient

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/netclient/target"
)

func TestBuild_URLJoin(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://api.example.com", "/users", "https://api.example.com/users"},
		{"https://api.example.com/", "/users", "https://api.example.com/users"},
		{"https://api.example.com/", "users", "https://api.example.com/users"},
		{"https://api.example.com/v1", "users/1", "https://api.example.com/v1/users/1"},
		{"https://api.example.com/v1/", "//users", "https://api.example.com/v1/users"},
		{"https://api.example.com", "", "https://api.example.com"},
		{"https://api.example.com", "/a b", "https://api.example.com/a%20b"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"|"+tt.path, func(t *testing.T) {
			req, err := Build(target.Descriptor{BaseURL: tt.base, Route: target.Get(tt.path)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.URL)
			assert.Equal(t, http.MethodGet, req.Method)
		})
	}
}

func TestBuild_QueryMerge(t *testing.T) {
	req, err := Build(target.Descriptor{
		BaseURL: "https://api.example.com/search?lang=en",
		Route:   target.Get("/"),
		Task: target.Plain(map[string]any{
			"q":    "go lang",
			"page": 2,
			"lang": "tr",
		}),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/search?lang=tr&q=go+lang", req.URL)
}

func TestBuild_Headers(t *testing.T) {
	d := target.Descriptor{
		BaseURL: "https://api.example.com",
		Route:   target.Post("/users"),
		Task: target.Parameters(&target.Body{
			Parameters: map[string]any{"name": "Ann"},
			Encoding:   target.EncodingJSON,
		}, nil),
		Headers: map[string]string{"x-trace": "abc", "User-Agent": "custom"},
	}

	req, err := build(d, map[string]string{"User-Agent": "netclient/dev", "Accept": "application/json"})
	require.NoError(t, err)
	assert.Equal(t, "custom", req.Header.Get("User-Agent"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, target.MIMEJSON, req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"Ann"}`, string(req.Body))
}

func TestBuild_ExplicitContentTypeWins(t *testing.T) {
	req, err := Build(target.Descriptor{
		BaseURL: "https://api.example.com",
		Route:   target.Put("/blob"),
		Task:    target.Data([]byte("raw"), nil),
		Headers: map[string]string{"Content-Type": "text/plain"},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Equal(t, []byte("raw"), req.Body)
}

func TestBuild_BodyOnlyForBodyMethods(t *testing.T) {
	task := target.Parameters(&target.Body{
		Parameters: map[string]any{"a": "b"},
		Encoding:   target.EncodingURL,
	}, nil)

	get, err := Build(target.Descriptor{BaseURL: "https://x.test", Route: target.Get("/"), Task: task})
	require.NoError(t, err)
	assert.Nil(t, get.Body)
	assert.Empty(t, get.Header.Get("Content-Type"))

	patch, err := Build(target.Descriptor{BaseURL: "https://x.test", Route: target.Patch("/"), Task: task})
	require.NoError(t, err)
	assert.Equal(t, "a=b", string(patch.Body))
	assert.Equal(t, target.MIMEFormURLEncoded, patch.Header.Get("Content-Type"))
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		d    target.Descriptor
	}{
		{"unparsable base", target.Descriptor{BaseURL: "http://[::1", Route: target.Get("/")}},
		{"relative base", target.Descriptor{BaseURL: "/api", Route: target.Get("/")}},
		{"empty base", target.Descriptor{Route: target.Get("/")}},
		{"invalid utf8 path", target.Descriptor{BaseURL: "https://x.test", Route: target.Get("/\xff")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.d)
			var be *BuildError
			require.ErrorAs(t, err, &be)
		})
	}
}

func TestWireRequest_HTTPRequest(t *testing.T) {
	w := &WireRequest{
		Method: http.MethodPost,
		URL:    "https://x.test/a",
		Header: http.Header{"X-A": []string{"1"}},
		Body:   []byte("payload"),
	}
	req, err := w.HTTPRequest(context.Background())
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, "1", req.Header.Get("X-A"))

	req.Header.Set("X-A", "2")
	assert.Equal(t, "1", w.Header.Get("X-A"))
}

func TestValidateStatus(t *testing.T) {
	for _, code := range []int{200, 201, 204, 299} {
		assert.NoError(t, ValidateStatus(code), code)
	}
	for _, code := range []int{100, 199, 300, 304, 404, 500, 503} {
		err := ValidateStatus(code)
		require.Error(t, err, code)
		assert.True(t, IsStatusCode(err))
		assert.Equal(t, code, AsError(err).StatusCode)
	}
	for _, code := range []int{0, 99, 1000} {
		assert.True(t, HasCode(ValidateStatus(code), ErrCodeInvalidServerResponse), code)
	}
}
