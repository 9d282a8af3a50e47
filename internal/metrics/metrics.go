// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsTotal counts packets read from a capture loop.
	PacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirecrab_capture_packets_total",
			Help: "Total number of packets read by a capture loop",
		},
		[]string{"loop"},
	)

	// DropsTotal counts packets dropped by a capture loop, by the layer that rejected them.
	DropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirecrab_capture_drops_total",
			Help: "Total number of packets dropped during decoding",
		},
		[]string{"loop", "layer"},
	)

	// EventsTotal counts events handed to the control loop.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirecrab_capture_events_total",
			Help: "Total number of events emitted by a capture loop",
		},
		[]string{"loop"},
	)

	// StallsTotal counts events that waited for room in a full channel.
	StallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirecrab_capture_stalls_total",
			Help: "Total number of events that found the control loop channel full",
		},
		[]string{"loop"},
	)

	// ReverseLookupsTotal counts PTR lookups by outcome (found, absent, error, rejected).
	ReverseLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wirecrab_reverse_lookups_total",
			Help: "Total number of reverse lookups by outcome",
		},
		[]string{"result"},
	)

	// Hosts tracks the number of hosts in the table.
	Hosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wirecrab_hosts",
			Help: "Number of distinct source addresses in the host table",
		},
	)
)
