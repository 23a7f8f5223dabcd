package netclient

import (
	"fmt"
	"strings"
	"time"
)

// StubMode selects how calls are executed.
type StubMode int

const (
	// StubNever always executes live.
	StubNever StubMode = iota
	// StubImmediate serves fixtures for targets that declare one.
	StubImmediate
	// StubDelayed is StubImmediate with every outcome deferred by a delay.
	StubDelayed
	// StubMockServer redirects targets that declare a mock base URL.
	StubMockServer
)

var stubModeNames = map[StubMode]string{
	StubNever:      "never",
	StubImmediate:  "immediate",
	StubDelayed:    "delayed",
	StubMockServer: "mock_server",
}

func (m StubMode) String() string {
	if name, ok := stubModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("StubMode(%d)", int(m))
}

// ParseStubMode parses a mode name. The empty string is StubNever.
func ParseStubMode(s string) (StubMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "never":
		return StubNever, nil
	case "immediate":
		return StubImmediate, nil
	case "delayed":
		return StubDelayed, nil
	case "mock_server", "mockserver", "with_mock_server":
		return StubMockServer, nil
	default:
		return StubNever, fmt.Errorf("netclient: unknown stub mode %q", s)
	}
}

// StubBehavior is the client-wide stubbing policy.
type StubBehavior struct {
	Mode StubMode
	// Delay applies to StubDelayed only.
	Delay time.Duration
}

func Never() StubBehavior                  { return StubBehavior{Mode: StubNever} }
func Immediate() StubBehavior              { return StubBehavior{Mode: StubImmediate} }
func Delayed(d time.Duration) StubBehavior { return StubBehavior{Mode: StubDelayed, Delay: d} }
func WithMockServer() StubBehavior         { return StubBehavior{Mode: StubMockServer} }

func (b StubBehavior) String() string {
	if b.Mode == StubDelayed {
		return fmt.Sprintf("delayed(%s)", b.Delay)
	}
	return b.Mode.String()
}
