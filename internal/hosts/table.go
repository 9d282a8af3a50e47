// Package hosts keeps the per-address host table that correlates observed
// traffic with DNS answers and reverse lookups.
//
// A Table has a single owner. It takes no locks; producers hand it events over
// channels and the owner applies them between renders.
package hosts

import (
	"iter"
	"net/netip"
	"strings"

	"wirecrab/internal/dns"
	"wirecrab/internal/metrics"
	"wirecrab/internal/models"
)

// maxAliasHops bounds the walk back through CNAME aliases.
const maxAliasHops = 16

// LookupFunc requests a reverse lookup for addr and reports whether the
// request was accepted. Results arrive later through ApplyReverse.
type LookupFunc func(addr netip.Addr) bool

// Entry is one row of the table as seen by a renderer.
type Entry struct {
	Addr netip.Addr
	// Domain is empty when Resolved is false.
	Domain   string
	Resolved bool
	Count    int
}

type reverseState struct {
	name  string
	found bool
	done  bool
}

// Table holds the insertion-ordered hosts, the live DNS cache, the inverse
// CNAME map and the reverse lookup cache.
type Table struct {
	order   []netip.Addr
	counts  map[netip.Addr]int
	live    map[netip.Addr]string
	aliases map[string]string
	reverse map[netip.Addr]reverseState

	lookup   LookupFunc
	selected int
}

// NewTable creates an empty table. lookup may be nil to disable reverse lookups.
func NewTable(lookup LookupFunc) *Table {
	t := &Table{lookup: lookup}
	t.reset()
	return t
}

func (t *Table) reset() {
	t.order = nil
	t.counts = make(map[netip.Addr]int)
	t.live = make(map[netip.Addr]string)
	t.aliases = make(map[string]string)
	t.reverse = make(map[netip.Addr]reverseState)
	t.selected = 0
}

// RecordTraffic counts one packet from addr, adding it to the end of the
// table on first sight.
func (t *Table) RecordTraffic(addr netip.Addr) {
	addr = addr.Unmap()
	if _, seen := t.counts[addr]; !seen {
		t.order = append(t.order, addr)
		t.counts[addr] = 0
		metrics.Hosts.Set(float64(len(t.order)))
	}
	t.counts[addr]++
	t.requestReverse(addr)
}

// requestReverse asks for a PTR lookup once per address. A rejected request
// leaves no trace, so the next packet from addr tries again.
func (t *Table) requestReverse(addr netip.Addr) {
	if t.lookup == nil {
		return
	}
	if _, ok := t.reverse[addr]; ok {
		return
	}
	if _, ok := t.live[addr]; ok {
		return
	}
	if t.lookup(addr) {
		t.reverse[addr] = reverseState{}
	}
}

// ApplyReverse stores the outcome of a reverse lookup. Results for addresses
// no longer in the table are discarded; it reports whether res was applied.
func (t *Table) ApplyReverse(res models.ReverseResult) bool {
	addr := res.Addr.Unmap()
	if _, ok := t.counts[addr]; !ok {
		return false
	}
	t.reverse[addr] = reverseState{name: res.Name, found: res.Found && res.Name != "", done: true}
	return true
}

// RecordDNSAnswer folds the answer section of msg into the live cache.
// CNAME records must precede the address records that depend on them.
func (t *Table) RecordDNSAnswer(msg *dns.Message) {
	if msg == nil {
		return
	}
	for _, rr := range msg.Answers {
		switch d := rr.Data.(type) {
		case dns.CNAME:
			t.aliases[foldName(d.Target)] = rr.Name
		case dns.A:
			t.live[d.Addr] = t.queriedName(rr.Name)
		case dns.AAAA:
			t.live[d.Addr.Unmap()] = t.queriedName(rr.Name)
		}
	}
}

// queriedName walks the inverse CNAME map from name back to the name that
// was queried.
func (t *Table) queriedName(name string) string {
	current := name
	for range maxAliasHops {
		prev, ok := t.aliases[foldName(current)]
		if !ok {
			break
		}
		current = prev
	}
	return current
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

// ResolveDomain returns the best known name for addr: the live DNS cache
// first, then a successful reverse lookup.
func (t *Table) ResolveDomain(addr netip.Addr) (string, bool) {
	addr = addr.Unmap()
	if name, ok := t.live[addr]; ok {
		return name, true
	}
	if rs, ok := t.reverse[addr]; ok && rs.found {
		return rs.name, true
	}
	return "", false
}

// Len returns the number of hosts.
func (t *Table) Len() int {
	return len(t.order)
}

// Pending returns the number of reverse lookups still in flight.
func (t *Table) Pending() int {
	n := 0
	for _, rs := range t.reverse {
		if !rs.done {
			n++
		}
	}
	return n
}

// Entries yields the hosts in first-seen order. The sequence can be ranged
// over repeatedly and does not modify the table.
func (t *Table) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, addr := range t.order {
			domain, ok := t.ResolveDomain(addr)
			if !yield(Entry{Addr: addr, Domain: domain, Resolved: ok, Count: t.counts[addr]}) {
				return
			}
		}
	}
}

// Clear empties every structure of the table at once and resets the selection.
func (t *Table) Clear() {
	t.reset()
	metrics.Hosts.Set(0)
}

// Selected returns the selection index, or -1 when the table is empty.
func (t *Table) Selected() int {
	if len(t.order) == 0 {
		return -1
	}
	return min(t.selected, len(t.order)-1)
}

// SelectNext moves the selection down one row, stopping at the last row.
func (t *Table) SelectNext() {
	if len(t.order) == 0 {
		return
	}
	t.selected = min(t.Selected()+1, len(t.order)-1)
}

// SelectPrev moves the selection up one row, stopping at the first row.
func (t *Table) SelectPrev() {
	if len(t.order) == 0 {
		return
	}
	t.selected = max(t.Selected()-1, 0)
}
