package proxy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yourneighborhoodchef/sniper/internal/logging"
)

// Pool owns a fixed set of endpoints for the process lifetime.
type Pool struct {
	endpoints []*Endpoint
	counter   atomic.Uint32
}

// NewPool builds one endpoint per distinct route. A route the client
// cannot be constructed for is a misconfiguration and fails the build.
func NewPool(routes []string) (*Pool, error) {
	seen := make(map[string]struct{}, len(routes))
	p := &Pool{}
	for _, route := range routes {
		if _, ok := seen[route]; ok {
			continue
		}
		seen[route] = struct{}{}

		ep, err := NewEndpoint(route)
		if err != nil {
			return nil, err
		}
		p.endpoints = append(p.endpoints, ep)
	}
	if len(p.endpoints) == 0 {
		return nil, fmt.Errorf("no routes")
	}
	return p, nil
}

func (p *Pool) Endpoints() []*Endpoint { return p.endpoints }

// Next returns the next endpoint round-robin, preferring one that is not
// cooling. If every endpoint is cooling it returns the round-robin pick
// anyway and lets Dispatch fail fast with ErrOnCooldown.
func (p *Pool) Next() *Endpoint {
	n := len(p.endpoints)
	start := int(p.counter.Add(1)-1) % n
	now := time.Now()
	for i := 0; i < n; i++ {
		ep := p.endpoints[(start+i)%n]
		if !ep.Cooling(now) {
			return ep
		}
	}
	return p.endpoints[start]
}

// ResetEvery clears every endpoint's request counter on the given
// cadence until the context is cancelled.
func (p *Pool) ResetEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, ep := range p.endpoints {
					ep.Reset()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CheckAll probes every distinct candidate route concurrently and
// returns the ones that accept connections to target. Routes that fail
// are dropped, never escalated; partial availability is normal.
func CheckAll(routes []string, target string) []string {
	seen := make(map[string]struct{}, len(routes))
	results := make(chan string)
	pending := 0

	for _, route := range routes {
		if _, ok := seen[route]; ok {
			continue
		}
		seen[route] = struct{}{}
		pending++

		go func(route string) {
			ep, err := NewEndpoint(route)
			if err != nil {
				logging.L().Debug("skipping route", zap.String("route", route), zap.Error(err))
				results <- ""
				return
			}
			if !ep.Check(target) {
				results <- ""
				return
			}
			results <- route
		}(route)
	}

	var working []string
	for i := 0; i < pending; i++ {
		if route := <-results; route != "" {
			working = append(working, route)
		}
	}
	return working
}
