package proxy

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"strings"
	"sync"
)

// NoProxy is what DescribeActive reports when no proxy is pinned.
const NoProxy = "No proxy"

var supportedSchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// Pool is a fixed list of egress proxies plus an optional pinned one.
// The list never changes after construction; only the pin does.
type Pool struct {
	endpoints     []string
	defaultScheme string

	mu     sync.RWMutex
	active string

	intn func(n int) int
}

// New builds a pool from already normalized endpoints. defaultScheme is
// applied to schemeless entries passed to SetActive.
func New(endpoints []string, defaultScheme string) *Pool {
	eps := make([]string, len(endpoints))
	copy(eps, endpoints)
	return &Pool{endpoints: eps, defaultScheme: defaultScheme, intn: rand.IntN}
}

// Load reads a newline-delimited proxy file. A missing file yields an empty
// pool. Blank lines and lines starting with '#' are ignored. Entries that
// cannot be parsed are left out and reported in the returned error, while the
// pool built from the remaining entries is still returned.
func Load(path, defaultScheme string) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil, defaultScheme), nil
		}
		return New(nil, defaultScheme), fmt.Errorf("failed to read proxy file: %w", err)
	}

	var (
		endpoints []string
		bad       []error
		seen      = make(map[string]bool)
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		ep, err := Normalize(raw, defaultScheme)
		if err != nil {
			bad = append(bad, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		if seen[ep] {
			continue
		}
		seen[ep] = true
		endpoints = append(endpoints, ep)
	}
	if err := scanner.Err(); err != nil {
		bad = append(bad, err)
	}

	return New(endpoints, defaultScheme), errors.Join(bad...)
}

// Normalize validates a proxy string and prefixes defaultScheme when the
// entry has none ("host:port", "user:pass@host:port").
func Normalize(raw, defaultScheme string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty proxy")
	}
	if !strings.Contains(raw, "://") {
		if defaultScheme == "" {
			defaultScheme = "http"
		}
		raw = defaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid proxy %q: %w", Redact(raw), err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !supportedSchemes[scheme] {
		return "", fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return "", fmt.Errorf("proxy %q must be host:port", Redact(raw))
	}
	u.Scheme = scheme
	return u.String(), nil
}

// Redact hides proxy credentials for display.
func Redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.User == nil {
		return endpoint
	}
	return u.Scheme + "://***@" + u.Host
}

// List returns a copy of the configured endpoints.
func (p *Pool) List() []string {
	out := make([]string, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

func (p *Pool) Len() int {
	return len(p.endpoints)
}

// SetActive pins endpoint for every following operation. An empty string
// clears the pin and brings back random selection.
func (p *Pool) SetActive(endpoint string) error {
	if endpoint == "" {
		p.mu.Lock()
		p.active = ""
		p.mu.Unlock()
		return nil
	}

	ep, err := Normalize(endpoint, p.defaultScheme)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.active = ep
	p.mu.Unlock()
	return nil
}

// Active returns the pinned endpoint or "".
func (p *Pool) Active() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// Select picks the proxy for one operation: the pinned one, else a uniformly
// random pool entry, else "" for a direct connection.
func (p *Pool) Select() string {
	if active := p.Active(); active != "" {
		return active
	}
	if len(p.endpoints) == 0 {
		return ""
	}
	return p.endpoints[p.intn(len(p.endpoints))]
}

func (p *Pool) DescribeActive() string {
	active := p.Active()
	if active == "" {
		return NoProxy
	}
	return Redact(active)
}
