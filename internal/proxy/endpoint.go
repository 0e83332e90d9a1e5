package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/yourneighborhoodchef/sniper/internal/headers"
)

// DefaultCheckTarget is the reachability target used when a caller does
// not supply one. Plain http so the check stays a pure transport probe.
const DefaultCheckTarget = "http://www.google.com/"

var (
	ErrRateLimited = errors.New("rate limited")
	ErrOnCooldown  = errors.New("on cooldown")
)

// Endpoint wraps one outbound proxy route with a reusable client bound
// to it. The request counter and cooldown deadline use atomics so the
// endpoint can be shared across sessions.
type Endpoint struct {
	route string
	http  tls_client.HttpClient

	requests      atomic.Int64
	cooldownUntil atomic.Int64 // unix nanos, 0 when not cooling
}

// NewEndpoint builds an endpoint for the given route. An empty route
// binds the client directly, without a proxy.
func NewEndpoint(route string) (*Endpoint, error) {
	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(jar),
	}
	if route != "" {
		options = append(options, tls_client.WithProxyUrl(route))
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("client for route %s: %w", route, err)
	}

	return &Endpoint{route: route, http: client}, nil
}

func (e *Endpoint) Route() string { return e.route }

// Requests reports how many requests went out in the current rate
// window.
func (e *Endpoint) Requests() int64 { return e.requests.Load() }

// Reset clears the request counter. The owning pool calls this on a
// fixed cadence; the endpoint never resets itself.
func (e *Endpoint) Reset() { e.requests.Store(0) }

// Cooling reports whether the endpoint is inside a cooldown window at t.
func (e *Endpoint) Cooling(t time.Time) bool {
	until := e.cooldownUntil.Load()
	return until != 0 && t.UnixNano() < until
}

// Check probes reachability through this route. Unreachability is a
// normal false, never an error. An empty target uses DefaultCheckTarget.
func (e *Endpoint) Check(target string) bool {
	if target == "" {
		target = DefaultCheckTarget
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	req.Header = headers.Build("", "")
	resp, err := e.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Dispatch posts a JSON body through this route. The caller owns the
// response body. While a cooldown is in effect the call fails with
// ErrOnCooldown before any network attempt; a 429 response starts a
// cooldown of Retry-After seconds and fails with ErrRateLimited.
func (e *Endpoint) Dispatch(url string, data any, h http.Header) (*http.Response, error) {
	now := time.Now()
	if until := e.cooldownUntil.Load(); until != 0 {
		if now.UnixNano() < until {
			return nil, ErrOnCooldown
		}
		// Clear only the value we saw expire: a concurrent 429 may have
		// installed a fresh cooldown that must survive.
		e.cooldownUntil.CompareAndSwap(until, 0)
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = h

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch via %s: %w", e.route, err)
	}
	e.requests.Add(1)

	if resp.StatusCode == http.StatusTooManyRequests {
		defer resp.Body.Close()
		retryAfter := resp.Header.Get("Retry-After")
		secs, perr := strconv.ParseInt(retryAfter, 10, 64)
		if perr != nil {
			// A guessed cooldown is worse than a loud failure: too
			// short renews the ban, too long wastes the route.
			return nil, fmt.Errorf("unparseable Retry-After %q via %s: %w", retryAfter, e.route, perr)
		}
		e.cooldownUntil.Store(now.Add(time.Duration(secs) * time.Second).UnixNano())
		return nil, ErrRateLimited
	}

	return resp, nil
}
