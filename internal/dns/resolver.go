package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	mdns "github.com/miekg/dns"

	"wirecrab/internal/log"
)

var (
	// ErrNetwork marks a failed exchange with the reverse resolver.
	ErrNetwork = errors.New("wirecrab: reverse lookup failed")

	// ErrNoPTR means the resolver answered without a PTR record.
	ErrNoPTR = errors.New("wirecrab: no PTR record")
)

const (
	DefaultServer  = "8.8.8.8:53"
	DefaultTimeout = 2 * time.Second

	maxUDPResponse = 1232
)

// Resolver sends PTR queries over UDP to a single server.
type Resolver struct {
	Server  string
	Timeout time.Duration

	dialer net.Dialer
}

// NewResolver returns a resolver for server, falling back to the defaults for
// empty or non-positive values.
func NewResolver(server string, timeout time.Duration) *Resolver {
	if server == "" {
		server = DefaultServer
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{Server: server, Timeout: timeout}
}

// LookupPTR returns the name in the first answer of the PTR response for addr.
// Datagrams that do not parse or do not answer the query are skipped until the
// timeout. Socket failures and the timeout wrap ErrNetwork.
func (r *Resolver) LookupPTR(ctx context.Context, addr netip.Addr) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	nc, err := r.dialer.DialContext(ctx, "udp", r.Server)
	if err != nil {
		return "", fmt.Errorf("%w: dial %s: %v", ErrNetwork, r.Server, err)
	}
	co := &mdns.Conn{Conn: nc, UDPSize: maxUDPResponse}
	defer co.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = co.SetDeadline(deadline)
	}

	if err := co.WriteMsg(NewReverseQuery(addr)); err != nil {
		return "", fmt.Errorf("%w: send: %v", ErrNetwork, err)
	}

	buf := make([]byte, maxUDPResponse)
	for {
		n, err := co.Read(buf)
		if err != nil {
			return "", fmt.Errorf("%w: receive: %v", ErrNetwork, err)
		}
		msg, err := Parse(buf[:n])
		if err != nil {
			log.For("resolver").WithError(err).Debug("skipping malformed reply")
			continue
		}
		if msg.Header.ID != ReverseQueryID || !msg.Header.Response() {
			continue
		}
		return firstPTR(msg)
	}
}

func firstPTR(msg *Message) (string, error) {
	if len(msg.Answers) == 0 {
		return "", ErrNoPTR
	}
	ptr, ok := msg.Answers[0].Data.(PTR)
	if !ok {
		return "", ErrNoPTR
	}
	return ptr.Target, nil
}
