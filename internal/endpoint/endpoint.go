// Package endpoint turns a WebSocket URL and an optional IPv4 override into
// a dial target.
//
// With an override the TCP connection goes to the given address and DNS is
// never consulted, while the TLS server name and the Host header of the
// upgrade request keep the URL's hostname. That keeps name based virtual
// hosting and certificate validation working when pinning a node by IP.
package endpoint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/gorilla/websocket"
)

var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrInvalidAddress  = errors.New("invalid resolve address")
)

var defaultPorts = map[string]string{
	"ws":  "80",
	"wss": "443",
}

// Endpoint is an immutable, validated connection target.
type Endpoint struct {
	url      *url.URL
	scheme   string
	host     string
	port     string
	override netip.Addr
}

// Resolve validates rawURL and the optional override. No network I/O happens here.
func Resolve(rawURL, override string) (*Endpoint, error) {
	ep, err := resolve(rawURL, override)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return ep, nil
}

func resolve(rawURL, override string) (*Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	scheme := strings.ToLower(u.Scheme)
	defPort, ok := defaultPorts[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q has scheme %q (expected ws or wss)", ErrInvalidEndpoint, rawURL, u.Scheme)
	}
	u.Scheme = scheme

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: %q is missing a host", ErrInvalidEndpoint, rawURL)
	}

	port := u.Port()
	if port == "" {
		port = defPort
	} else if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return nil, fmt.Errorf("%w: %q has invalid port %q", ErrInvalidEndpoint, rawURL, port)
	}

	ep := &Endpoint{url: u, scheme: scheme, host: host, port: port}

	if override = strings.TrimSpace(override); override != "" {
		addr, err := parseIPv4(override)
		if err != nil {
			return nil, err
		}
		ep.override = addr
	}

	return ep, nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, s)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, s)
	}
	return addr, nil
}

// URL returns the normalized endpoint URL used for the upgrade request.
func (e *Endpoint) URL() string { return e.url.String() }

func (e *Endpoint) String() string { return e.URL() }

func (e *Endpoint) Scheme() string { return e.scheme }

// Hostname is the host from the URL without port.
func (e *Endpoint) Hostname() string { return e.host }

func (e *Endpoint) Port() string { return e.port }

// HostHeader is the value sent in the Host header of the handshake.
func (e *Endpoint) HostHeader() string { return e.url.Host }

// Override returns the pinned address, if any.
func (e *Endpoint) Override() (netip.Addr, bool) {
	return e.override, e.override.IsValid()
}

// Target is the host:port the TCP connection is opened to.
func (e *Endpoint) Target() string {
	if e.override.IsValid() {
		return net.JoinHostPort(e.override.String(), e.port)
	}
	return net.JoinHostPort(e.host, e.port)
}

// DialOptions tune the dialer built by Dialer.
type DialOptions struct {
	HandshakeTimeout   time.Duration
	InsecureSkipVerify bool
}

// Dialer builds a websocket dialer bound to this endpoint.
func (e *Endpoint) Dialer(opts DialOptions) *websocket.Dialer {
	netDialer := &net.Dialer{Timeout: opts.HandshakeTimeout}

	d := &websocket.Dialer{
		HandshakeTimeout: opts.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			ServerName:         e.host,
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed nodes
			MinVersion:         tls.VersionTLS12,
		},
		NetDialContext: netDialer.DialContext,
	}

	if e.override.IsValid() {
		// A proxy would resolve the hostname itself.
		d.Proxy = nil
		target := e.Target()
		d.NetDialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
			return netDialer.DialContext(ctx, network, target)
		}
	}

	return d
}
