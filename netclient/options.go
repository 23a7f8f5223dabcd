package netclient

import (
	"github.com/kbukum/netclient/fixture"
	"github.com/kbukum/netclient/logger"
	"github.com/kbukum/netclient/observability"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithDecoder replaces the JSON decoder.
func WithDecoder(d Decoder) Option {
	return func(c *Client) { c.decoder = d }
}

// WithFixtures sets the fixture source used in stub modes. It takes
// precedence over Config.Fixtures.
func WithFixtures(s fixture.Source) Option {
	return func(c *Client) { c.fixtures = s }
}

// WithStubBehavior overrides Config.Stub.
func WithStubBehavior(b StubBehavior) Option {
	return func(c *Client) { c.stub = b }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics enables call metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// CallOption configures a single call.
type CallOption func(*callOptions)

type callOptions struct {
	requireBody bool
	scheduler   Scheduler
}

func newCallOptions(opts []CallOption) callOptions {
	o := callOptions{scheduler: DefaultScheduler}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RequireBody fails the call with ErrCodeMissingBodyData when the payload is empty.
func RequireBody() CallOption {
	return func(o *callOptions) { o.requireBody = true }
}

// WithScheduler delivers asynchronous results through s. It has no effect on
// Request, which returns on the calling goroutine.
func WithScheduler(s Scheduler) CallOption {
	return func(o *callOptions) {
		if s != nil {
			o.scheduler = s
		}
	}
}
