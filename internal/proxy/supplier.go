package proxy

import (
	"context"
	"net/url"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 16

// ProxySupplier hands out proxy URLs in round-robin order.
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// Checker reports whether a proxy can reach probeURL.
type Checker func(ctx context.Context, proxyURL, probeURL string) bool

// NewProxySupplier keeps the proxies that pass check against probeURL, in
// their configured order. A nil check uses an HTTP probe.
func NewProxySupplier(ctx context.Context, proxies []string, probeURL string, check Checker) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}
	if check == nil {
		check = probe
	}

	log.Infof("🔄 Checking %d proxies against %s...", len(proxies), probeURL)

	ok := make([]bool, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, proxyURL := range proxies {
		g.Go(func() error {
			if _, err := url.Parse(proxyURL); err != nil {
				log.Warnf("❌ Proxy %q is not a valid URL: %v", proxyURL, err)
				return nil
			}
			ok[i] = check(gctx, proxyURL, probeURL)
			if !ok[i] {
				log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
			}
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, proxyURL := range proxies {
		if ok[i] {
			valid = append(valid, proxyURL)
		}
	}

	log.Infof("✅ Proxy supplier ready with %d of %d proxies", len(valid), len(proxies))
	return &proxySupplier{proxies: valid}
}

// Get returns the next proxy URL, or "" when none are usable.
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func probe(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Head(probeURL)
	if err != nil {
		log.Debugf("Proxy probe failed for %s: %v", proxyURL, err)
		return false
	}
	if resp.StatusCode() >= 500 {
		log.Debugf("Proxy probe for %s returned %s", proxyURL, resp.Status())
		return false
	}
	return true
}
