// Package balancer fronts a pool of independent game-server instances. It
// health-checks every candidate backend, routes each inbound client to a
// healthy backend with a free session slot, and proxies raw bytes both ways
// so the game protocol passes through untouched.
package balancer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Config carries the balancer's construction parameters.
type Config struct {
	Addr                string
	BackendHost         string
	BackendPorts        []int
	MaxConnsPerBackend  int
	HealthCheckInterval time.Duration
	DialTimeout         time.Duration
	Clock               clockwork.Clock // nil means real clock
}

// DefaultConfig matches the standard deployment: one balancer fronting up to
// seven single-session game servers on consecutive ports.
func DefaultConfig() Config {
	return Config{
		Addr:                "0.0.0.0:8888",
		BackendHost:         "127.0.0.1",
		BackendPorts:        []int{9999, 10000, 10001, 10002, 10003, 10004, 10005},
		MaxConnsPerBackend:  2,
		HealthCheckInterval: 10 * time.Second,
		DialTimeout:         2 * time.Second,
	}
}

type errorMessage struct {
	Error string `json:"error"`
}

// LoadBalancer accepts clients and proxies them to eligible backends.
type LoadBalancer struct {
	cfg      Config
	clock    clockwork.Clock
	backends []*Backend

	mu   sync.Mutex // guards next
	next int

	listener net.Listener
}

// New builds a balancer over the configured candidate list. Every backend
// starts unhealthy until the first check passes.
func New(cfg Config) *LoadBalancer {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	backends := make([]*Backend, 0, len(cfg.BackendPorts))
	for _, port := range cfg.BackendPorts {
		backends = append(backends, newBackend(cfg.BackendHost, port, cfg.MaxConnsPerBackend))
	}
	return &LoadBalancer{cfg: cfg, clock: clock, backends: backends}
}

// Backends exposes the descriptor list for inspection.
func (lb *LoadBalancer) Backends() []*Backend {
	return lb.backends
}

// Listen binds the client-facing TCP listener.
func (lb *LoadBalancer) Listen() error {
	l, err := net.Listen("tcp", lb.cfg.Addr)
	if err != nil {
		return err
	}
	lb.listener = l
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (lb *LoadBalancer) Addr() net.Addr {
	return lb.listener.Addr()
}

// Run binds and serves until ctx is cancelled.
func (lb *LoadBalancer) Run(ctx context.Context) error {
	if err := lb.Listen(); err != nil {
		return err
	}
	return lb.Serve(ctx)
}

// Serve runs the health-check loop and the accept loop until ctx is
// cancelled or the listener fails.
func (lb *LoadBalancer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		lb.listener.Close()
	}()
	go lb.healthLoop(ctx)

	log.Info().
		Str("addr", lb.listener.Addr().String()).
		Int("backends", len(lb.backends)).
		Msg("load balancer listening")

	for {
		conn, err := lb.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go lb.handleClient(conn)
	}
}

// healthLoop probes every candidate on a fixed interval with a short connect
// timeout so one dead backend cannot stall the sweep. Only transitions are
// logged.
func (lb *LoadBalancer) healthLoop(ctx context.Context) {
	lb.checkAll()
	ticker := lb.clock.NewTicker(lb.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			lb.checkAll()
		}
	}
}

func (lb *LoadBalancer) checkAll() {
	for _, b := range lb.backends {
		conn, err := net.DialTimeout("tcp", b.Addr(), lb.cfg.DialTimeout)
		healthy := err == nil
		if conn != nil {
			conn.Close()
		}
		if b.setHealthy(healthy) {
			status := "down"
			if healthy {
				status = "up"
			}
			log.Info().
				Str("backend", b.Addr()).
				Str("status", status).
				Msg("backend health changed")
		}
	}
}

// pickBackend round-robins over the pool and claims the first backend that is
// healthy with a free slot, or nil when none qualifies.
func (lb *LoadBalancer) pickBackend() *Backend {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for range lb.backends {
		b := lb.backends[lb.next%len(lb.backends)]
		lb.next++
		if b.tryAcquire() {
			return b
		}
	}
	return nil
}

// handleClient selects a backend and proxies bytes bidirectionally until
// either side closes. The backend's slot is released exactly once, when the
// client-to-backend direction ends, so capacity frees when the client leaves.
func (lb *LoadBalancer) handleClient(client net.Conn) {
	connID := uuid.New().String()[:8]

	backend := lb.pickBackend()
	if backend == nil {
		log.Warn().
			Str("conn", connID).
			Str("remote", client.RemoteAddr().String()).
			Msg("rejecting client, no backend available")
		if data, err := json.Marshal(errorMessage{Error: "no game server available"}); err == nil {
			client.Write(append(data, '\n'))
		}
		client.Close()
		return
	}

	upstream, err := net.DialTimeout("tcp", backend.Addr(), lb.cfg.DialTimeout)
	if err != nil {
		log.Error().
			Err(err).
			Str("conn", connID).
			Str("backend", backend.Addr()).
			Msg("could not reach selected backend")
		client.Close()
		backend.release()
		return
	}

	log.Info().
		Str("conn", connID).
		Str("remote", client.RemoteAddr().String()).
		Str("backend", backend.Addr()).
		Int("active", backend.ActiveConns()).
		Msg("proxying client")

	go func() {
		io.Copy(upstream, client)
		client.Close()
		upstream.Close()
		backend.release()
		log.Debug().Str("conn", connID).Msg("client side closed, slot released")
	}()
	go func() {
		io.Copy(client, upstream)
		client.Close()
		upstream.Close()
	}()
}
