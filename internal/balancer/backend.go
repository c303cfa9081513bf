package balancer

import (
	"net"
	"strconv"
	"sync"
)

// Backend is the bookkeeping record for one candidate game-server address.
// The health flag is flipped by the health-check loop and the connection
// counter by concurrently running proxy goroutines, so both sit behind the
// backend's own mutex.
type Backend struct {
	host     string
	port     int
	maxConns int

	mu      sync.Mutex
	healthy bool
	conns   int
}

func newBackend(host string, port, maxConns int) *Backend {
	return &Backend{host: host, port: port, maxConns: maxConns}
}

// Addr returns the dialable host:port of this backend.
func (b *Backend) Addr() string {
	return net.JoinHostPort(b.host, strconv.Itoa(b.port))
}

// Healthy reports the last health-check result.
func (b *Backend) Healthy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.healthy
}

// setHealthy records a health-check result and reports whether the flag
// actually changed, so the caller logs transitions only.
func (b *Backend) setHealthy(healthy bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	changed := b.healthy != healthy
	b.healthy = healthy
	return changed
}

// tryAcquire claims one connection slot. It fails on unhealthy or full
// backends, which is exactly the routing eligibility rule.
func (b *Backend) tryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.healthy || b.conns >= b.maxConns {
		return false
	}
	b.conns++
	return true
}

// release frees one connection slot.
func (b *Backend) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conns > 0 {
		b.conns--
	}
}

// ActiveConns returns the current claimed-slot count.
func (b *Backend) ActiveConns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conns
}
