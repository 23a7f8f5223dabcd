package netclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/netclient/logger"
	"github.com/kbukum/netclient/target"
)

func hijack(t *testing.T, w http.ResponseWriter) net.Conn {
	t.Helper()
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	return conn
}

func TestHTTPTransport_DroppedConnectionIsReissued(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_ = hijack(t, w).Close()
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	c := newTestClient(t)

	resp, err := c.Execute(context.Background(), target.Descriptor{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, int32(2), hits.Load())
}

func TestHTTPTransport_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn := hijack(t, w)
		_, _ = conn.Write([]byte("garbage\r\n\r\n"))
		_ = conn.Close()
	}))
	defer srv.Close()
	c := newTestClient(t)

	_, err := c.Execute(context.Background(), target.Descriptor{BaseURL: srv.URL})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeInvalidServerResponse))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestHTTPTransport_RefusedIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	c := newTestClient(t)

	_, err := c.Execute(context.Background(), target.Descriptor{BaseURL: addr})
	require.Error(t, err)
	assert.True(t, IsConnection(err))
	assert.False(t, IsConstrained(err))
}

func TestHTTPTransport_ClientTimeoutIsConstrained(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr := NewHTTPTransport(&http.Client{Timeout: 20 * time.Millisecond})
	req, err := Build(target.Descriptor{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = tr.Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsConstrained(err))
}

func TestHTTPTransport_CallerCancelIsNotConstrained(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := classifyTransportError(ctx, fmt.Errorf("read: %w", syscall.ECONNRESET))
	assert.False(t, IsConstrained(err))
}

func TestIsConstrainedNetErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"reset", fmt.Errorf("read tcp: %w", syscall.ECONNRESET), true},
		{"aborted", syscall.ECONNABORTED, true},
		{"broken pipe", syscall.EPIPE, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"eof", fmt.Errorf("Get: %w", io.EOF), true},
		{"reset text", errors.New("write: connection reset by peer"), true},
		{"refused", syscall.ECONNREFUSED, false},
		{"dns", &net.DNSError{Err: "no such host", Name: "x.invalid", IsTimeout: true}, false},
		{"other", errors.New("tls: bad certificate"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConstrainedNetErr(tt.err))
		})
	}
}

func TestConstrained(t *testing.T) {
	assert.Nil(t, Constrained(nil))

	base := errors.New("reset")
	err := Constrained(base)
	assert.True(t, IsConstrained(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsConstrained(base))
}

func TestTLSConfig(t *testing.T) {
	var nilCfg *TLSConfig
	got, err := nilCfg.Build()
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = (&TLSConfig{}).Build()
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = (&TLSConfig{SkipVerify: true, MinVersion: "1.3", ServerName: "api"}).Build()
	require.NoError(t, err)
	assert.True(t, got.InsecureSkipVerify)
	assert.Equal(t, "api", got.ServerName)

	_, err = (&TLSConfig{CAFile: "/does/not/exist.pem"}).Build()
	assert.Error(t, err)

	assert.Error(t, (&TLSConfig{KeyFile: "k.pem"}).Validate())
}

func TestHTTPTransport_TLSServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"secure":true}`))
	}))
	defer srv.Close()

	c, err := New(Config{TLS: &TLSConfig{SkipVerify: true}}, WithLogger(logger.Nop()))
	require.NoError(t, err)

	resp, err := c.Execute(context.Background(), target.Descriptor{BaseURL: srv.URL})
	require.NoError(t, err)
	assert.JSONEq(t, `{"secure":true}`, string(resp.Body))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NewInvalidServerResponseError(nil), "Failed to parse the response to HTTPResponse"},
		{NewStatusCodeError(404), "The server response didn't fall in the given range Status Code is: 404"},
		{NewMissingBodyError(), "No body data provided from the server"},
		{NewSerializationError(SerializationJSON, nil), "Failed serialization type: JSON"},
		{NewKeyPathNotFoundError("a.b"), "Response JSON not contain value by key path: a.b"},
		{NewDecodingError(errors.New("bad")), "Decoding problem: bad"},
		{NewConnectionError(errors.New("refused")), "Network connection seems to be offline: refused"},
		{NewInvalidStubFileError("user_ok"), "Stub file not found for fixture: user_ok"},
		{NewImageDecodeError(nil), "the body doesn't contain a valid data."},
		{NewUnderlyingError(errors.New("boom")), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	e := NewKeyPathNotFoundError("x")
	assert.Same(t, e, AsError(fmt.Errorf("wrapped: %w", e)))

	plain := errors.New("plain")
	assert.Equal(t, ErrCodeUnderlying, AsError(plain).Code)
	assert.Equal(t, ErrCodeDecoding, AsErrorOr(plain, ErrCodeDecoding).Code)
	assert.ErrorIs(t, AsError(plain), plain)

	_, ok := CodeOf(plain)
	assert.False(t, ok)
	assert.True(t, IsCancelled(NewUnderlyingError(context.Canceled)))
	assert.Equal(t, "unknown", ErrorCode(99).String())
}

func TestJSONDecoder(t *testing.T) {
	var u user
	require.NoError(t, NewJSONDecoder(false).Decode([]byte(`{"id":1,"extra":true}`), &u))
	assert.Equal(t, 1, u.ID)

	assert.Error(t, NewJSONDecoder(true).Decode([]byte(`{"id":1,"extra":true}`), &u))

	raw := []byte("keep")
	require.NoError(t, NewJSONDecoder(true).Decode([]byte("not json"), &raw))
	assert.Equal(t, "not json", string(raw))
}

func TestStubMode(t *testing.T) {
	for _, name := range []string{"never", "immediate", "delayed", "mock_server"} {
		m, err := ParseStubMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}
	m, err := ParseStubMode("")
	require.NoError(t, err)
	assert.Equal(t, StubNever, m)

	_, err = ParseStubMode("sometimes")
	assert.Error(t, err)

	assert.Equal(t, "delayed(1.5s)", Delayed(1500*time.Millisecond).String())
	assert.Equal(t, "immediate", Immediate().String())
}
