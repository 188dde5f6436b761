// Package engine owns the process-wide lifecycle of the HTTP transfer
// engine: the shared transport/TLS configuration every transfer runs over.
// Initialize must run early in startup, after configuration is loaded but
// before any subsystem attempts a transfer. Teardown runs once at shutdown.
package engine

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/atomic"

	"pushrelay/pkg/logger"
)

var (
	// ErrNotInitialized is returned by Acquire before a successful Initialize.
	ErrNotInitialized = errors.New("transfer engine not initialized")

	// ErrClosed is returned by Acquire and Initialize after teardown; the
	// engine is never re-initialized within the same process run.
	ErrClosed = errors.New("transfer engine closed")
)

// Config carries the startup-time transfer bounds. Both timeouts must be
// finite and the request timeout must exceed the connect timeout; config
// loading validates this before the manager is built.
type Config struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// bootFunc performs global engine startup and returns the shared transport.
// It is a field so tests can count startup calls and simulate failures.
type bootFunc func(cfg Config) (*http.Transport, error)

// Manager holds the engine's process-wide state. Initialize is expected to
// run once, synchronously, during startup; the initialized/closed flags are
// atomics only because workers read them concurrently afterward.
type Manager struct {
	cfg         Config
	boot        bootFunc
	transport   *http.Transport
	initialized atomic.Bool
	closed      atomic.Bool
}

// NewManager creates an uninitialized manager. No engine state exists until
// Initialize succeeds.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, boot: defaultBoot}
}

// Initialize performs global engine startup. It is idempotent: a second
// call after success returns nil without repeating startup. It fails when
// startup fails, when the engine lacks TLS support, or after Close.
func (m *Manager) Initialize() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.initialized.Load() {
		return nil
	}

	tr, err := m.boot(m.cfg)
	if err != nil {
		return fmt.Errorf("transfer engine startup failed: %w", err)
	}

	// Refuse to operate without transport security.
	if tr.TLSClientConfig == nil || len(tls.CipherSuites()) == 0 {
		return errors.New("transfer engine lacks TLS support, cannot continue")
	}

	m.transport = tr
	m.initialized.Store(true)
	logger.Info("Transfer engine initialized: connectTimeout=%v, requestTimeout=%v", m.cfg.ConnectTimeout, m.cfg.RequestTimeout)
	return nil
}

// Acquire returns a fresh per-transfer handle over the shared engine state.
// Each handle disables redirect following and bounds the whole exchange by
// the configured request timeout. Handles are read-only views of the shared
// transport and are safe to use from any worker after Initialize.
func (m *Manager) Acquire() (*http.Client, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if !m.initialized.Load() {
		return nil, ErrNotInitialized
	}
	return &http.Client{
		Transport: m.transport,
		Timeout:   m.cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// Close tears the engine down. It runs at most once, only after a
// successful Initialize, and has no observable result. The manager cannot
// be initialized again afterward.
func (m *Manager) Close() {
	if !m.initialized.Load() || m.closed.Load() {
		return
	}
	m.closed.Store(true)
	m.transport.CloseIdleConnections()
	logger.Info("Transfer engine closed")
}

// defaultBoot builds the shared transport: TLS pinned to 1.2 minimum,
// HTTP/1.1 only (empty TLSNextProto disables the h2 upgrade), and
// keep-alives off so no connection is reused across transfers.
func defaultBoot(cfg Config) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	return &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSNextProto:        map[string]func(string, *tls.Conn) http.RoundTripper{},
		ForceAttemptHTTP2:   false,
		DisableKeepAlives:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}, nil
}
