package camps

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrServerUnreachable indicates the camp backend refused the connection,
// i.e. the service is not running at the configured address.
var ErrServerUnreachable = errors.New("camp service is unreachable: the backend does not appear to be running")

// ErrNetworkUnreachable indicates a network-level failure between the client
// and the backend. Check the connection and try again.
var ErrNetworkUnreachable = errors.New("network unavailable: check your internet connection and try again")

// classifyTransportErr maps known transport failures to the two actionable
// sentinel errors. Anything that is not a network condition passes through
// unchanged so its diagnostic detail is preserved.
func classifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
	}
	return err
}
