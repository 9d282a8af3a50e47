package dns

import (
	"context"
	"errors"
	"net/netip"
	"sync"

	"wirecrab/internal/log"
	"wirecrab/internal/metrics"
	"wirecrab/internal/models"
)

// PTRLookuper resolves an address to a hostname.
type PTRLookuper interface {
	LookupPTR(ctx context.Context, addr netip.Addr) (string, error)
}

// LookupPool runs reverse lookups off the control loop. Requests are queued
// without blocking; results come back on Results in completion order.
type LookupPool struct {
	lookuper PTRLookuper
	workers  int
	requests chan netip.Addr
	results  chan models.ReverseResult
	wg       sync.WaitGroup
}

// NewLookupPool creates a pool with the given worker count and queue depth.
func NewLookupPool(l PTRLookuper, workers, queue int) *LookupPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = 1
	}
	return &LookupPool{
		lookuper: l,
		workers:  workers,
		requests: make(chan netip.Addr, queue),
		results:  make(chan models.ReverseResult, queue),
	}
}

// Start launches the workers. They exit when ctx is done; Results is closed
// once all of them have returned.
func (p *LookupPool) Start(ctx context.Context) {
	for range p.workers {
		p.wg.Add(1)
		go p.work(ctx)
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Submit queues addr and reports whether it was accepted. A full queue rejects
// the request so the caller can retry later.
func (p *LookupPool) Submit(addr netip.Addr) bool {
	select {
	case p.requests <- addr:
		return true
	default:
		metrics.ReverseLookupsTotal.WithLabelValues("rejected").Inc()
		return false
	}
}

// Results delivers completed lookups.
func (p *LookupPool) Results() <-chan models.ReverseResult {
	return p.results
}

func (p *LookupPool) work(ctx context.Context) {
	defer p.wg.Done()
	logger := log.For("resolver")

	for {
		select {
		case <-ctx.Done():
			return
		case addr := <-p.requests:
			name, err := p.lookuper.LookupPTR(ctx, addr)
			res := models.ReverseResult{Addr: addr, Name: name, Found: err == nil && name != ""}
			switch {
			case err == nil:
				metrics.ReverseLookupsTotal.WithLabelValues("found").Inc()
			case errors.Is(err, ErrNoPTR):
				metrics.ReverseLookupsTotal.WithLabelValues("absent").Inc()
			default:
				metrics.ReverseLookupsTotal.WithLabelValues("error").Inc()
				logger.WithError(err).WithField("addr", addr.String()).Debug("reverse lookup failed")
			}

			select {
			case p.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}
