package hosts

import (
	"net"
	"net/netip"
	"slices"
	"testing"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wirecrab/internal/dns"
	"wirecrab/internal/models"
)

var (
	hostA = netip.MustParseAddr("10.0.0.1")
	hostB = netip.MustParseAddr("10.0.0.2")
)

func collect(t *Table) []Entry {
	return slices.Collect(t.Entries())
}

func answer(name string, data dns.RData) dns.ResourceRecord {
	return dns.ResourceRecord{Name: name, Class: dns.ClassINET, Data: data}
}

func TestRecordTrafficOrderAndCounts(t *testing.T) {
	tbl := NewTable(nil)
	tbl.RecordTraffic(hostA)
	tbl.RecordTraffic(hostB)
	tbl.RecordTraffic(hostA)

	assert.Equal(t, []Entry{
		{Addr: hostA, Count: 2},
		{Addr: hostB, Count: 1},
	}, collect(tbl))
	assert.Equal(t, 2, tbl.Len())
}

func TestRecordTrafficUnmapsAddresses(t *testing.T) {
	tbl := NewTable(nil)
	tbl.RecordTraffic(netip.MustParseAddr("::ffff:10.0.0.1"))
	tbl.RecordTraffic(hostA)

	entries := collect(tbl)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
}

func TestEntriesIsRestartable(t *testing.T) {
	tbl := NewTable(nil)
	tbl.RecordTraffic(hostA)
	tbl.RecordTraffic(hostB)

	first := collect(tbl)
	assert.Equal(t, first, collect(tbl))

	for e := range tbl.Entries() {
		assert.Equal(t, hostA, e.Addr)
		break
	}
	assert.Equal(t, 2, tbl.Len())
}

func TestClearBehavesLikeFresh(t *testing.T) {
	var requested []netip.Addr
	tbl := NewTable(func(a netip.Addr) bool {
		requested = append(requested, a)
		return true
	})
	tbl.RecordTraffic(hostA)
	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("a.example", dns.A{Addr: hostA}),
		answer("www.example", dns.CNAME{Target: "a.example"}),
	}})
	tbl.SelectNext()

	tbl.Clear()
	assert.Empty(t, collect(tbl))
	assert.Equal(t, -1, tbl.Selected())
	assert.Zero(t, tbl.Pending())

	tbl.RecordTraffic(hostB)
	tbl.RecordTraffic(hostA)
	assert.Equal(t, []Entry{
		{Addr: hostB, Count: 1},
		{Addr: hostA, Count: 1},
	}, collect(tbl))
	assert.Equal(t, []netip.Addr{hostA, hostB, hostA}, requested)
}

func TestRecordDNSAnswerWalksCNAME(t *testing.T) {
	tbl := NewTable(nil)
	target := netip.MustParseAddr("1.2.3.4")
	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("www.example.com", dns.CNAME{Target: "example.com"}),
		answer("example.com", dns.A{Addr: target}),
	}})

	name, ok := tbl.ResolveDomain(target)
	require.True(t, ok)
	assert.Equal(t, "www.example.com", name)
}

func TestRecordDNSAnswerFromWire(t *testing.T) {
	m := new(mdns.Msg)
	m.SetQuestion("cdn.example.org.", mdns.TypeAAAA)
	m.Response = true
	m.Compress = true
	m.Answer = []mdns.RR{
		&mdns.CNAME{Hdr: mdns.RR_Header{Name: "cdn.example.org.", Rrtype: mdns.TypeCNAME, Class: mdns.ClassINET, Ttl: 60}, Target: "edge.Example.net."},
		&mdns.CNAME{Hdr: mdns.RR_Header{Name: "edge.example.net.", Rrtype: mdns.TypeCNAME, Class: mdns.ClassINET, Ttl: 60}, Target: "pop1.example.net."},
		&mdns.AAAA{Hdr: mdns.RR_Header{Name: "pop1.example.net.", Rrtype: mdns.TypeAAAA, Class: mdns.ClassINET, Ttl: 60}, AAAA: net.ParseIP("2001:db8::1")},
	}
	wire, err := m.Pack()
	require.NoError(t, err)

	msg, err := dns.Parse(wire)
	require.NoError(t, err)

	tbl := NewTable(nil)
	tbl.RecordDNSAnswer(msg)
	name, ok := tbl.ResolveDomain(netip.MustParseAddr("2001:db8::1"))
	require.True(t, ok)
	assert.Equal(t, "cdn.example.org", name)
}

func TestRecordDNSAnswerCyclicAliases(t *testing.T) {
	tbl := NewTable(nil)
	target := netip.MustParseAddr("192.0.2.7")
	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("a.example", dns.CNAME{Target: "b.example"}),
		answer("b.example", dns.CNAME{Target: "a.example"}),
		answer("a.example", dns.A{Addr: target}),
	}})

	name, ok := tbl.ResolveDomain(target)
	require.True(t, ok)
	assert.Contains(t, []string{"a.example", "b.example"}, name)
}

func TestRecordDNSAnswerIgnoresOtherTypes(t *testing.T) {
	tbl := NewTable(nil)
	tbl.RecordDNSAnswer(nil)
	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("example.com", dns.Unimplemented{Type: 15}),
		answer("4.3.2.1.in-addr.arpa", dns.PTR{Target: "example.com"}),
	}})
	_, ok := tbl.ResolveDomain(netip.MustParseAddr("1.2.3.4"))
	assert.False(t, ok)
}

func TestResolveDomainPrecedence(t *testing.T) {
	tbl := NewTable(func(netip.Addr) bool { return true })
	tbl.RecordTraffic(hostA)

	_, ok := tbl.ResolveDomain(hostA)
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Pending())

	require.True(t, tbl.ApplyReverse(models.ReverseResult{Addr: hostA, Name: "ptr.example", Found: true}))
	name, ok := tbl.ResolveDomain(hostA)
	require.True(t, ok)
	assert.Equal(t, "ptr.example", name)
	assert.Zero(t, tbl.Pending())

	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("live.example", dns.A{Addr: hostA}),
	}})
	name, ok = tbl.ResolveDomain(hostA)
	require.True(t, ok)
	assert.Equal(t, "live.example", name)
}

func TestReverseLookupRequestedOnce(t *testing.T) {
	calls := 0
	tbl := NewTable(func(netip.Addr) bool {
		calls++
		return true
	})
	tbl.RecordTraffic(hostA)
	tbl.RecordTraffic(hostA)
	tbl.ApplyReverse(models.ReverseResult{Addr: hostA})
	tbl.RecordTraffic(hostA)

	assert.Equal(t, 1, calls)
	_, ok := tbl.ResolveDomain(hostA)
	assert.False(t, ok, "absence is cached")
}

func TestReverseLookupRetriedWhenRejected(t *testing.T) {
	accept := false
	calls := 0
	tbl := NewTable(func(netip.Addr) bool {
		calls++
		return accept
	})
	tbl.RecordTraffic(hostA)
	assert.Zero(t, tbl.Pending())

	accept = true
	tbl.RecordTraffic(hostA)
	tbl.RecordTraffic(hostA)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, tbl.Pending())
}

func TestReverseLookupSkippedWhenLive(t *testing.T) {
	calls := 0
	tbl := NewTable(func(netip.Addr) bool {
		calls++
		return true
	})
	tbl.RecordDNSAnswer(&dns.Message{Answers: []dns.ResourceRecord{
		answer("live.example", dns.A{Addr: hostA}),
	}})
	tbl.RecordTraffic(hostA)
	assert.Zero(t, calls)
}

func TestApplyReverseDiscardsUnknown(t *testing.T) {
	tbl := NewTable(nil)
	assert.False(t, tbl.ApplyReverse(models.ReverseResult{Addr: hostA, Name: "x", Found: true}))

	tbl.RecordTraffic(hostA)
	tbl.Clear()
	assert.False(t, tbl.ApplyReverse(models.ReverseResult{Addr: hostA, Name: "x", Found: true}))
	_, ok := tbl.ResolveDomain(hostA)
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	tbl := NewTable(nil)
	assert.Equal(t, -1, tbl.Selected())
	tbl.SelectNext()
	tbl.SelectPrev()
	assert.Equal(t, -1, tbl.Selected())

	tbl.RecordTraffic(hostA)
	tbl.RecordTraffic(hostB)
	assert.Equal(t, 0, tbl.Selected())

	tbl.SelectPrev()
	assert.Equal(t, 0, tbl.Selected())
	tbl.SelectNext()
	tbl.SelectNext()
	assert.Equal(t, 1, tbl.Selected())
	tbl.SelectPrev()
	assert.Equal(t, 0, tbl.Selected())
}
