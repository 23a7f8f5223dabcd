package netclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/netclient/fixture"
	"github.com/kbukum/netclient/keypath"
	"github.com/kbukum/netclient/logger"
	"github.com/kbukum/netclient/observability"
	"github.com/kbukum/netclient/target"
	"github.com/kbukum/netclient/version"
)

// Client executes target descriptors. It is immutable after New and safe for
// concurrent use.
type Client struct {
	transport Transport
	decoder   Decoder
	fixtures  fixture.Source
	stub      StubBehavior
	headers   map[string]string
	log       *logger.Logger
	metrics   *observability.Metrics
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stub, err := cfg.Stub.Behavior()
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	headers["User-Agent"] = version.UserAgent()
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	for k, v := range cfg.Headers {
		headers[http.CanonicalHeaderKey(k)] = v
	}

	c := &Client{
		decoder: NewJSONDecoder(false),
		stub:    stub,
		headers: headers,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		t, err := newDefaultTransport(cfg)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}
	if c.fixtures == nil {
		c.fixtures = fixture.None
		if cfg.Fixtures.Dir != "" {
			c.fixtures = fixture.NewFS(afero.NewOsFs(), cfg.Fixtures.Dir, cfg.Fixtures.Extension)
		}
	}
	if c.log == nil {
		c.log = logger.WithComponent("netclient")
	}

	return c, nil
}

// StubBehavior returns the client's stubbing policy.
func (c *Client) StubBehavior() StubBehavior { return c.stub }

// Response is the validated, key path narrowed result of a call.
type Response struct {
	StatusCode int
	Headers    map[string]string
	// Body is the payload after key path extraction.
	Body []byte
	// Stubbed is set when the payload came from a fixture.
	Stubbed bool
}

// Execute runs the pipeline without decoding.
func (c *Client) Execute(ctx context.Context, t target.Target, opts ...CallOption) (*Response, error) {
	o := newCallOptions(opts)
	resp, err := c.run(ctx, t.Descriptor(), o, nil)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

type strategy int

const (
	strategyLive strategy = iota
	strategyFixture
	strategyMockServer
)

func (s strategy) String() string {
	switch s {
	case strategyFixture:
		return "fixture"
	case strategyMockServer:
		return "mock_server"
	default:
		return "live"
	}
}

// plan resolves the execution strategy for d. Targets that do not opt into
// the configured stub capability run live.
func (c *Client) plan(d target.Descriptor) (strategy, time.Duration) {
	switch c.stub.Mode {
	case StubImmediate:
		if d.HasFixture() {
			return strategyFixture, 0
		}
	case StubDelayed:
		if d.HasFixture() {
			return strategyFixture, c.stub.Delay
		}
		return strategyLive, c.stub.Delay
	case StubMockServer:
		if d.HasMockServer() {
			return strategyMockServer, 0
		}
	}
	return strategyLive, 0
}

// run executes the whole pipeline for one call. decode may be nil. The
// returned error is always an *Error.
func (c *Client) run(ctx context.Context, d target.Descriptor, o callOptions, decode func([]byte) error) (*Response, error) {
	strat, delay := c.plan(d)
	if strat == strategyMockServer {
		d = d.WithBaseURL(d.Stub.MockBaseURL)
	}

	callID := uuid.NewString()
	log := c.log.WithFields(logger.Fields(logger.FieldCallID, callID))

	req, err := build(d, c.headers)
	if err != nil {
		e := NewUnderlyingError(err)
		log.Warn("request build failed", logger.Fields(logger.FieldCode, e.Code.String(), logger.FieldError, err.Error()))
		return nil, e
	}

	ctx, cs := observability.StartCall(ctx, c.metrics, req.Method, req.URL, strat.String())
	cs.SetAttributes(attribute.String(observability.AttrCallID, callID))
	if d.KeyPath != "" {
		cs.SetAttributes(attribute.String(observability.AttrKeyPath, d.KeyPath))
	}

	resp, err := c.pipeline(ctx, cs, d, req, strat, o, decode)
	if delay > 0 {
		if werr := wait(ctx, delay); werr != nil && err == nil {
			resp, err = nil, NewUnderlyingError(werr)
		}
	}

	fields := logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldStrategy, strat.String(),
	)
	if err != nil {
		e := AsError(err)
		outcome := observability.OutcomeError
		if IsCancelled(e) {
			outcome = observability.OutcomeCancelled
		}
		dur := cs.End(ctx, outcome, e, e.Code.String())
		fields[logger.FieldCode] = e.Code.String()
		log.Warn("call failed", logger.MergeWithDuration(logger.MergeWithError(fields, e), dur))
		return nil, e
	}

	dur := cs.End(ctx, observability.OutcomeSuccess, nil, "")
	fields[logger.FieldStatus] = resp.StatusCode
	log.Debug("call finished", logger.MergeWithDuration(fields, dur))
	return resp, nil
}

func (c *Client) pipeline(
	ctx context.Context,
	cs *observability.CallSpan,
	d target.Descriptor,
	req *WireRequest,
	strat strategy,
	o callOptions,
	decode func([]byte) error,
) (*Response, error) {
	var resp *Response
	if strat == strategyFixture {
		cs.SetAttributes(attribute.String(observability.AttrFixture, d.Stub.Fixture))
		payload, ok := c.fixtures.Load(d.Stub.Fixture)
		if !ok {
			return nil, NewInvalidStubFileError(d.Stub.Fixture)
		}
		resp = &Response{StatusCode: http.StatusOK, Body: payload, Stubbed: true}
	} else {
		raw, err := c.send(ctx, cs, req)
		if err != nil {
			return nil, err
		}
		resp = &Response{
			StatusCode: raw.StatusCode,
			Headers:    flattenHeaders(raw.Header),
			Body:       raw.Body,
		}
		cs.SetAttributes(attribute.Int(observability.AttrStatusCode, raw.StatusCode))
		if err := ValidateStatus(raw.StatusCode); err != nil {
			return nil, err
		}
	}

	if o.requireBody && len(resp.Body) == 0 {
		return nil, NewMissingBodyError()
	}

	if d.KeyPath != "" {
		narrowed, err := extract(resp.Body, d.KeyPath)
		if err != nil {
			return nil, err
		}
		resp.Body = narrowed
	}

	if decode != nil {
		if err := decode(resp.Body); err != nil {
			return nil, AsErrorOr(err, ErrCodeDecoding)
		}
	}
	return resp, nil
}

// send issues req, re-issuing it once when the transport reports a
// constrained network.
func (c *Client) send(ctx context.Context, cs *observability.CallSpan, req *WireRequest) (*RawResponse, error) {
	var (
		raw     *RawResponse
		attempt int
	)
	err := retry.Do(
		func() error {
			attempt++
			if attempt > 1 {
				cs.Retry(ctx, attempt)
				c.log.Debug("re-issuing request on constrained network", logger.Fields(logger.FieldURL, req.URL))
			}
			r, err := c.transport.Execute(ctx, req)
			if err != nil {
				return err
			}
			raw = r
			return nil
		},
		retry.Attempts(2),
		retry.Delay(0),
		retry.MaxJitter(0),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(IsConstrained),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err == nil {
		return raw, nil
	}

	switch {
	case ctx.Err() != nil:
		return nil, NewUnderlyingError(ctx.Err())
	case errors.Is(err, ErrMalformedResponse):
		return nil, NewInvalidServerResponseError(err)
	default:
		return nil, NewConnectionError(err)
	}
}

func extract(payload []byte, path string) ([]byte, error) {
	out, err := keypath.Extract(payload, path)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, keypath.ErrNotFound):
		return nil, NewKeyPathNotFoundError(path)
	case errors.Is(err, keypath.ErrNotObject):
		return nil, NewSerializationError(SerializationJSON, err)
	default:
		return nil, NewSerializationError(SerializationData, err)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flattenHeaders keeps the first value of each header.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
