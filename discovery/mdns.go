package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// DefaultService is the mDNS service name without domain suffix.
	DefaultService = "_chatdesk._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
	// DefaultScanTimeout bounds each discovery scan.
	DefaultScanTimeout = 3 * time.Second
)

// ErrNoBackend indicates a scan finished without seeing any message backend.
var ErrNoBackend = errors.New("discovery: no message backend found")

type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// Config controls how message backends are browsed.
type Config struct {
	Service     string
	Domain      string
	ScanTimeout time.Duration

	browseFn browseFunc
}

func (c Config) withDefaults() Config {
	out := c
	if out.Service == "" {
		out.Service = DefaultService
	}
	if out.Domain == "" {
		out.Domain = DefaultDomain
	}
	if out.ScanTimeout <= 0 {
		out.ScanTimeout = DefaultScanTimeout
	}
	return out
}

func (c Config) browser() (browseFunc, error) {
	if c.browseFn != nil {
		return c.browseFn, nil
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mDNS resolver: %w", err)
	}
	return resolver.Browse, nil
}

// Browse runs one scan window and returns every backend seen, sorted by name
// then host name.
func Browse(ctx context.Context, config Config) ([]Backend, error) {
	cfg := config.withDefaults()

	browse, err := cfg.browser()
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 32)
	collected := make(map[string]Backend)
	var collectedMu sync.Mutex
	collectorDone := make(chan struct{})

	go func() {
		defer close(collectorDone)
		for {
			select {
			case <-scanCtx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil {
					continue
				}
				backend, ok := parseEntry(entry)
				if !ok {
					continue
				}
				collectedMu.Lock()
				collected[backend.key()] = backend
				collectedMu.Unlock()
			}
		}
	}()

	if err := browse(scanCtx, cfg.Service, cfg.Domain, entries); err != nil &&
		!errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("browse %s: %w", cfg.Service, err)
	}

	<-scanCtx.Done()
	<-collectorDone

	// A timeout just means this scan window ended naturally.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collectedMu.Lock()
	backends := make([]Backend, 0, len(collected))
	for _, backend := range collected {
		backends = append(backends, backend)
	}
	collectedMu.Unlock()

	sort.Slice(backends, func(i, j int) bool {
		if backends[i].Name != backends[j].Name {
			return backends[i].Name < backends[j].Name
		}
		return backends[i].HostName < backends[j].HostName
	})
	return backends, nil
}

// ResolveBaseURL browses once and returns the base URL of the first backend.
func ResolveBaseURL(ctx context.Context, config Config) (string, error) {
	backends, err := Browse(ctx, config)
	if err != nil {
		return "", err
	}
	for _, backend := range backends {
		if base := backend.BaseURL(); base != "" {
			return base, nil
		}
	}
	return "", ErrNoBackend
}
