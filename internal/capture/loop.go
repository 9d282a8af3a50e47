package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"wirecrab/internal/dns"
	"wirecrab/internal/log"
	"wirecrab/internal/metrics"
	"wirecrab/internal/models"
	"wirecrab/internal/packet"
	"wirecrab/internal/wire"
)

// Stats is a snapshot of a loop's counters.
type Stats struct {
	Received uint64
	Emitted  uint64
	// Stalled counts events that found the output channel full. While a loop
	// is stalled the capture handle buffers packets, and the kernel drops them
	// once that buffer fills.
	Stalled uint64
	// Dropped counts discarded packets by the layer that rejected them.
	Dropped map[string]uint64
}

// TotalDropped sums Dropped over all layers.
func (s Stats) TotalDropped() uint64 {
	var n uint64
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

type counters struct {
	name     string
	received atomic.Uint64
	emitted  atomic.Uint64
	stalled  atomic.Uint64

	mu      sync.Mutex
	dropped map[string]uint64
}

func (c *counters) receive() {
	c.received.Add(1)
	metrics.PacketsTotal.WithLabelValues(c.name).Inc()
}

func (c *counters) emit() {
	c.emitted.Add(1)
	metrics.EventsTotal.WithLabelValues(c.name).Inc()
}

func (c *counters) stall(logger *logrus.Entry) {
	if c.stalled.Add(1) == 1 {
		logger.Warn("output channel full, capture is outpacing the display")
	}
	metrics.StallsTotal.WithLabelValues(c.name).Inc()
}

func (c *counters) drop(logger *logrus.Entry, err error) {
	layer := wire.LayerOf(err)
	if layer == "" {
		layer = "unsupported"
	}
	c.mu.Lock()
	if c.dropped == nil {
		c.dropped = make(map[string]uint64)
	}
	c.dropped[layer]++
	c.mu.Unlock()

	metrics.DropsTotal.WithLabelValues(c.name, layer).Inc()
	logger.WithError(err).WithField("layer", layer).Debug("packet dropped")
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := make(map[string]uint64, len(c.dropped))
	for k, v := range c.dropped {
		dropped[k] = v
	}
	return Stats{Received: c.received.Load(), Emitted: c.emitted.Load(), Stalled: c.stalled.Load(), Dropped: dropped}
}

// send delivers v on out, counting a stall when out is full before blocking
// until there is room.
func send[T any](c *counters, logger *logrus.Entry, out chan<- T, v T) {
	select {
	case out <- v:
	default:
		c.stall(logger)
		out <- v
	}
	c.emit()
}

// run reads src until it is exhausted or closed and hands every frame to handle.
func run(src Source, logger *logrus.Entry, c *counters, handle func([]byte) error) error {
	logger.Info("capture loop started")
	defer logger.Info("capture loop stopped")

	for {
		data, _, err := src.ReadPacketData()
		switch {
		case err == nil:
		case errors.Is(err, pcap.NextErrorTimeoutExpired):
			continue
		case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
			return nil
		default:
			return fmt.Errorf("read packet: %w", err)
		}

		c.receive()
		if err := handle(data); err != nil {
			c.drop(logger, err)
		}
	}
}

// decodeIP decodes the Ethernet header and the IPv4 or IPv6 header behind it.
func decodeIP(frame []byte) (packet.IPPacket, error) {
	eth, err := packet.DecodeEthernet(frame)
	if err != nil {
		return nil, err
	}
	switch t := eth.PayloadType(); t {
	case packet.EtherTypeIPv4:
		return packet.DecodeIPv4(eth.Payload)
	case packet.EtherTypeIPv6:
		return packet.DecodeIPv6(eth.Payload)
	default:
		return nil, fmt.Errorf("%w: ethertype %#04x", wire.ErrUnsupported, t)
	}
}

// TrafficLoop emits one TrafficObservation per IP packet.
type TrafficLoop struct {
	out chan<- models.TrafficObservation
	counters
}

// NewTrafficLoop creates a loop that sends observations to out.
func NewTrafficLoop(out chan<- models.TrafficObservation) *TrafficLoop {
	return &TrafficLoop{out: out, counters: counters{name: "traffic"}}
}

// Run blocks until src is closed or exhausted.
func (l *TrafficLoop) Run(src Source) error {
	logger := log.For("capture").WithField("loop", l.name)
	return run(src, logger, &l.counters, func(frame []byte) error {
		ip, err := decodeIP(frame)
		if err != nil {
			return err
		}
		send(&l.counters, logger, l.out, models.TrafficObservation{Src: ip.Source(), Dst: ip.Destination()})
		return nil
	})
}

// Stats returns the loop's counters.
func (l *TrafficLoop) Stats() Stats { return l.snapshot() }

// DNSLoop emits every DNS message carried over UDP.
type DNSLoop struct {
	out chan<- *dns.Message
	counters
}

// NewDNSLoop creates a loop that sends parsed messages to out.
func NewDNSLoop(out chan<- *dns.Message) *DNSLoop {
	return &DNSLoop{out: out, counters: counters{name: "dns"}}
}

// Run blocks until src is closed or exhausted.
func (l *DNSLoop) Run(src Source) error {
	logger := log.For("capture").WithField("loop", l.name)
	return run(src, logger, &l.counters, func(frame []byte) error {
		ip, err := decodeIP(frame)
		if err != nil {
			return err
		}
		if ip.Transport() != packet.ProtocolUDP {
			return fmt.Errorf("%w: ip protocol %d", wire.ErrUnsupported, ip.Transport())
		}
		udp, err := packet.DecodeUDP(ip.Body())
		if err != nil {
			return err
		}
		msg, err := dns.Parse(udp.Data)
		if err != nil {
			return err
		}
		send(&l.counters, logger, l.out, msg)
		return nil
	})
}

// Stats returns the loop's counters.
func (l *DNSLoop) Stats() Stats { return l.snapshot() }
