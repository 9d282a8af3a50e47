package models

import "net/netip"

// TrafficObservation is emitted once per matched, non-DNS packet.
type TrafficObservation struct {
	Src netip.Addr
	Dst netip.Addr
}

// ReverseResult is the outcome of an on-demand PTR lookup. Found is false when
// the resolver had no name or could not be reached; the absence is cached too.
type ReverseResult struct {
	Addr  netip.Addr
	Name  string
	Found bool
}
