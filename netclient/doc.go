// Package netclient executes declarative HTTP targets.
//
// A target describes one endpoint: base URL, route, task (query and body
// encoding), headers, an optional key path into the JSON response and
// optional stub capabilities. A Client turns it into a request, runs it
// through a Transport, validates the status code, narrows the payload to
// the key path and decodes the result. Every failure is reported as an
// *Error carrying one ErrorCode.
//
// # Stubbing
//
// StubBehavior selects how calls run:
//
//   - Never: always live.
//   - Immediate: targets with a fixture return it without touching the network.
//   - Delayed: like Immediate, then wait the configured delay.
//   - WithMockServer: targets with a mock base URL are sent there instead.
//
// # Usage
//
//	client, err := netclient.New(netclient.Config{})
//	if err != nil {
//		return err
//	}
//	user, err := netclient.Request[User](ctx, client, target.Descriptor{
//		BaseURL: "https://api.example.com",
//		Route:   target.Get("/users/1"),
//		KeyPath: "data.user",
//	})
//
// Asynchronous variants are Go, Subscribe and Stream.
package netclient
