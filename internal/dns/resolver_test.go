package dns

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer runs an in-process DNS server that answers with handler.
func startServer(t *testing.T, handler mdns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &mdns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestLookupPTR(t *testing.T) {
	addr := startServer(t, func(w mdns.ResponseWriter, r *mdns.Msg) {
		m := new(mdns.Msg)
		m.SetReply(r)
		m.Compress = true
		m.Answer = []mdns.RR{&mdns.PTR{
			Hdr: mdns.RR_Header{Name: r.Question[0].Name, Rrtype: mdns.TypePTR, Class: mdns.ClassINET, Ttl: 60},
			Ptr: "dns.google.",
		}}
		_ = w.WriteMsg(m)
	})

	r := NewResolver(addr, time.Second)
	name, err := r.LookupPTR(context.Background(), netip.MustParseAddr("8.8.8.8"))
	require.NoError(t, err)
	assert.Equal(t, "dns.google", name)
}

func TestLookupPTRNoAnswer(t *testing.T) {
	addr := startServer(t, func(w mdns.ResponseWriter, r *mdns.Msg) {
		m := new(mdns.Msg)
		m.SetRcode(r, mdns.RcodeNameError)
		_ = w.WriteMsg(m)
	})

	r := NewResolver(addr, time.Second)
	_, err := r.LookupPTR(context.Background(), netip.MustParseAddr("192.0.2.1"))
	assert.ErrorIs(t, err, ErrNoPTR)
}

func TestLookupPTRIgnoresMismatchedID(t *testing.T) {
	var calls atomic.Int32
	addr := startServer(t, func(w mdns.ResponseWriter, r *mdns.Msg) {
		calls.Add(1)
		m := new(mdns.Msg)
		m.SetReply(r)
		m.Id = r.Id + 1
		_ = w.WriteMsg(m)
	})

	r := NewResolver(addr, 200*time.Millisecond)
	_, err := r.LookupPTR(context.Background(), netip.MustParseAddr("192.0.2.1"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLookupPTRSkipsMalformedReply(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	go func() {
		buf := make([]byte, 512)
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		var q mdns.Msg
		if q.Unpack(buf[:n]) != nil {
			return
		}
		_, _ = pc.WriteTo([]byte{0x12, 0x34, 0x81}, from)

		m := new(mdns.Msg)
		m.SetReply(&q)
		m.Answer = []mdns.RR{&mdns.PTR{
			Hdr: mdns.RR_Header{Name: q.Question[0].Name, Rrtype: mdns.TypePTR, Class: mdns.ClassINET, Ttl: 60},
			Ptr: "host.example.",
		}}
		reply, err := m.Pack()
		if err != nil {
			return
		}
		_, _ = pc.WriteTo(reply, from)
	}()

	r := NewResolver(pc.LocalAddr().String(), time.Second)
	name, err := r.LookupPTR(context.Background(), netip.MustParseAddr("192.0.2.7"))
	require.NoError(t, err)
	assert.Equal(t, "host.example", name)
}

func TestLookupPTRTimeout(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	r := NewResolver(pc.LocalAddr().String(), 100*time.Millisecond)
	start := time.Now()
	_, err = r.LookupPTR(context.Background(), netip.MustParseAddr("192.0.2.1"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewResolverDefaults(t *testing.T) {
	r := NewResolver("", 0)
	assert.Equal(t, DefaultServer, r.Server)
	assert.Equal(t, DefaultTimeout, r.Timeout)
}
