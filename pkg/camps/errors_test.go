package camps

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

type fakeTimeout struct{}

func (fakeTimeout) Error() string   { return "i/o timeout" }
func (fakeTimeout) Timeout() bool   { return true }
func (fakeTimeout) Temporary() bool { return true }

func TestClassifyTransportErr(t *testing.T) {
	refused := fmt.Errorf("dial tcp: %w", &net.OpError{
		Op:  "dial",
		Err: syscall.ECONNREFUSED,
	})
	if got := classifyTransportErr(refused); !errors.Is(got, ErrServerUnreachable) {
		t.Fatalf("connection refused should map to ErrServerUnreachable, got %v", got)
	}

	unreachable := fmt.Errorf("dial tcp: %w", &net.OpError{
		Op:  "dial",
		Err: syscall.ENETUNREACH,
	})
	if got := classifyTransportErr(unreachable); !errors.Is(got, ErrNetworkUnreachable) {
		t.Fatalf("network unreachable should map to ErrNetworkUnreachable, got %v", got)
	}

	dnsErr := fmt.Errorf("lookup failed: %w", &net.DNSError{Name: "camps.example", Err: "no such host"})
	if got := classifyTransportErr(dnsErr); !errors.Is(got, ErrNetworkUnreachable) {
		t.Fatalf("dns failure should map to ErrNetworkUnreachable, got %v", got)
	}

	timeout := fmt.Errorf("request: %w", fakeTimeout{})
	if got := classifyTransportErr(timeout); !errors.Is(got, ErrNetworkUnreachable) {
		t.Fatalf("timeout should map to ErrNetworkUnreachable, got %v", got)
	}

	plain := errors.New("decode body: unexpected EOF")
	if got := classifyTransportErr(plain); got != plain {
		t.Fatalf("unknown errors must pass through unchanged, got %v", got)
	}

	if classifyTransportErr(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}
