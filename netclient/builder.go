package netclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/netclient/target"
)

// WireRequest is a fully built request, independent of any transport.
type WireRequest struct {
	Method string
	URL    string
	Header http.Header
	// Body is nil when no body is attached.
	Body []byte
}

// HTTPRequest converts w into an *http.Request bound to ctx.
func (w *WireRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if w.Body != nil {
		body = bytes.NewReader(w.Body)
	}
	req, err := http.NewRequestWithContext(ctx, w.Method, w.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header = w.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return req, nil
}

// BuildError reports a descriptor that cannot be turned into a request.
type BuildError struct {
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return "netclient: build request: " + e.Reason + ": " + e.Err.Error()
	}
	return "netclient: build request: " + e.Reason
}

func (e *BuildError) Unwrap() error { return e.Err }

// Build turns a descriptor into a wire request.
func Build(d target.Descriptor) (*WireRequest, error) {
	return build(d, nil)
}

// build applies defaults first and descriptor headers second so the
// descriptor wins on conflicts.
func build(d target.Descriptor, defaults map[string]string) (*WireRequest, error) {
	u, err := joinURL(d.BaseURL, d.Route.Path())
	if err != nil {
		return nil, err
	}

	if params := d.Task.URLParameters(); len(params) > 0 {
		query := u.Query()
		for k, vs := range target.EncodeValues(params) {
			query[k] = vs
		}
		u.RawQuery = query.Encode()
	}

	method := d.Route.Method()
	header := make(http.Header, len(defaults)+len(d.Headers)+1)
	setSorted(header, defaults)
	setSorted(header, d.Headers)

	var body []byte
	if method.CarriesBody() {
		body = d.Task.HTTPBody()
	}
	if body != nil && header.Get("Content-Type") == "" {
		if ct := d.Task.ContentType(); ct != "" {
			header.Set("Content-Type", ct)
		}
	}

	return &WireRequest{
		Method: string(method),
		URL:    u.String(),
		Header: header,
		Body:   body,
	}, nil
}

// setSorted applies headers in key order so duplicate spellings of one
// header resolve deterministically.
func setSorted(h http.Header, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		h.Set(k, values[k])
	}
}

// joinURL appends path to base with exactly one slash between them.
func joinURL(base, path string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, &BuildError{Reason: "invalid base URL", Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &BuildError{Reason: fmt.Sprintf("base URL %q is not absolute", base)}
	}
	if !utf8.ValidString(path) {
		return nil, &BuildError{Reason: "path is not valid UTF-8"}
	}

	path = strings.TrimLeft(path, "/")
	if path == "" {
		return u, nil
	}

	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	escaped := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.Join(segments, "/")

	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, &BuildError{Reason: "invalid path", Err: err}
	}
	u.Path = unescaped
	u.RawPath = escaped
	return u, nil
}
