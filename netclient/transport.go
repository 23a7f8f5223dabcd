package netclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// RawResponse is what a transport returns for a completed exchange.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes wire requests. Implementations wrap failures caused by a
// degraded connection with Constrained so the client can re-issue them once,
// and malformed responses with ErrMalformedResponse.
type Transport interface {
	Execute(ctx context.Context, req *WireRequest) (*RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *WireRequest) (*RawResponse, error)

func (f TransportFunc) Execute(ctx context.Context, req *WireRequest) (*RawResponse, error) {
	return f(ctx, req)
}

var (
	// ErrConstrained marks a failure on a degraded but not unreachable network.
	ErrConstrained = errors.New("netclient: network constrained")
	// ErrMalformedResponse marks a response without an interpretable status line.
	ErrMalformedResponse = errors.New("netclient: malformed HTTP response")
)

type constrainedError struct {
	err error
}

func (e *constrainedError) Error() string   { return "network constrained: " + e.err.Error() }
func (e *constrainedError) Unwrap() []error { return []error{ErrConstrained, e.err} }

// Constrained wraps err so that IsConstrained reports true.
func Constrained(err error) error {
	if err == nil {
		return nil
	}
	return &constrainedError{err: err}
}

// IsConstrained reports whether err was marked with Constrained.
func IsConstrained(err error) bool {
	return errors.Is(err, ErrConstrained)
}

// HTTPTransport executes requests with an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client uses http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func newDefaultTransport(cfg Config) (*HTTPTransport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	return NewHTTPTransport(&http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}), nil
}

// Execute sends req and reads the whole response body.
func (t *HTTPTransport) Execute(ctx context.Context, req *WireRequest) (*RawResponse, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Error on close is safe to ignore for read operations

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response body: %w", err))
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// CloseIdleConnections releases idle keep-alive connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

func classifyTransportError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return err
	case isMalformed(err):
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	case isConstrainedNetErr(err):
		return Constrained(err)
	default:
		return err
	}
}

// isConstrainedNetErr reports failures of an established or half-established
// connection: resets, aborts, broken pipes, truncated reads and timeouts.
// Refused connections, DNS failures and unreachable hosts are not constrained.
func isConstrainedNetErr(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection reset by peer") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "transport connection broken")
}

func isMalformed(err error) bool {
	return strings.Contains(err.Error(), "malformed HTTP")
}
