package reachability

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 5 * time.Second
)

// Probe derives connectivity from a periodic HEAD against a health URL.
// It embeds a Manual monitor so subscribers see the same transition
// semantics regardless of where the signal comes from.
type Probe struct {
	*Manual

	url      string
	interval time.Duration
	client   *http.Client

	done      chan struct{}
	closeOnce sync.Once
	closed    uint32
	wg        sync.WaitGroup
}

// NewProbe starts a probe loop against url. An interval <= 0 selects the
// default. The initial state is optimistic (online) until the first probe
// completes, so startup requests are not spuriously queued.
func NewProbe(url string, interval time.Duration) *Probe {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	p := &Probe{
		Manual:   NewManual(true),
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: probeTimeout},
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Probe) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.SetOnline(p.check())
		select {
		case <-ticker.C:
		case <-p.done:
			return
		}
	}
}

func (p *Probe) check() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		log.Error().Err(err).Str("url", p.url).Msg("reachability probe misconfigured")
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	// Any HTTP response proves the network path works.
	return true
}

// Close stops the probe loop. Safe to call multiple times.
func (p *Probe) Close() error {
	p.closeOnce.Do(func() {
		atomic.StoreUint32(&p.closed, 1)
		close(p.done)
		p.wg.Wait()
	})
	return nil
}
