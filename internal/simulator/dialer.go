package simulator

import (
	"context"
	"net"
	"sync"
)

// CountingDialer wraps a net.Dialer and counts connection attempts. It lets
// callers assert that a code path never reached the network.
type CountingDialer struct {
	net.Dialer

	mu       sync.Mutex
	attempts []string
}

// DialContext records the address and dials it.
func (d *CountingDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.attempts = append(d.attempts, address)
	d.mu.Unlock()
	return d.Dialer.DialContext(ctx, network, address)
}

// Attempts returns the number of DialContext calls so far.
func (d *CountingDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.attempts)
}

// Addresses returns every dialed address in call order.
func (d *CountingDialer) Addresses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.attempts))
	copy(out, d.attempts)
	return out
}
