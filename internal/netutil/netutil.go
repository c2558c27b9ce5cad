// Package netutil supplies the address parse/format/bind/connect helpers
// used by both binaries: default server address/port, bind-retry on
// EADDRINUSE, and runtime IPv4/IPv6 family selection (driven by the first
// address resolution, per spec.md §9's resolution of the Open Question
// about the source's compile-time toggle).
package netutil

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"syscall"
	"time"
)

// DefaultServerPort is the port a server binds to and a client connects to
// when none is given on the command line.
const DefaultServerPort = 6683

// DefaultServerHost is the address a client connects to when none is given.
const DefaultServerHost = "127.0.0.1"

// BindRetryInterval is how long the server waits between bind attempts when
// the listen address is already in use.
const BindRetryInterval = 5 * time.Second

// JoinHostPort formats host and port into a dial/listen address, bracketing
// literal IPv6 hosts.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// ListenTCPWithRetry binds a TCP listener at addr, retrying every
// BindRetryInterval while the error is "address already in use". If ctx is
// canceled while it waits, it gives up and returns an error wrapping
// ctx.Err().
func ListenTCPWithRetry(ctx context.Context, addr string) (net.Listener, error) {
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		log.Printf("[netutil] %s in use, retrying in %s", addr, BindRetryInterval)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("netutil: bind %s: %w", addr, ctx.Err())
		case <-time.After(BindRetryInterval):
		}
	}
}

// ListenUDP binds a UDP socket on the given port on all interfaces of the
// address family implied by network ("udp", "udp4", or "udp6"). Port 0
// requests an ephemeral port, which the caller reads back via LocalAddr.
func ListenUDP(network string, port int) (*net.UDPConn, error) {
	addr := &net.UDPAddr{Port: port}
	return net.ListenUDP(network, addr)
}

// Family reports "tcp4"/"udp4" or "tcp6"/"udp6" for ip, defaulting to the
// v4 family when ip is nil or unparsable.
func Family(base string, ip net.IP) string {
	if ip != nil && ip.To4() == nil && ip.To16() != nil {
		return base + "6"
	}
	return base + "4"
}

// ResolveHostPort resolves host into a TCP address. For a host name with
// both IPv4 and IPv6 addresses, the first IPv4 address is returned (the
// behavior of net.ResolveTCPAddr on the "tcp" network).
func ResolveHostPort(host string, port int) (*net.TCPAddr, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netutil: resolve %s: %w", addr, err)
	}
	return tcpAddr, nil
}

// Dial connects to a server over TCP.
func Dial(ctx context.Context, host string, port int) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("netutil: dial %s:%d: %w", host, port, err)
	}
	return conn, nil
}
