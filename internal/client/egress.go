package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/model"
	"github.com/AlexZinkM/faucetbot/internal/proxy"
)

const maxEchoBody = 4 << 10

// IPLookup resolves the public address a proxy egresses from.
type IPLookup struct {
	url     string
	timeout time.Duration
}

func NewIPLookup(url string, timeout time.Duration) *IPLookup {
	return &IPLookup{url: url, timeout: timeout}
}

type ipEchoResponse struct {
	IP string `json:"ip"`
}

// EgressIP asks the echo service which IP it sees for endpoint. Both the
// ipify JSON form and a bare-text body are accepted.
func (l *IPLookup) EgressIP(ctx context.Context, endpoint string) (string, error) {
	if l == nil || l.url == "" {
		return "", fmt.Errorf("%w: no IP echo service configured", model.ErrNetworkFailure)
	}

	httpClient, err := proxy.NewHTTPClient(endpoint, l.timeout)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", RandomUserAgent())

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to get IP: %w", model.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: failed to get IP: status %d", model.ErrNetworkFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEchoBody))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read IP: %w", model.ErrNetworkFailure, err)
	}

	var echo ipEchoResponse
	if err := json.Unmarshal(body, &echo); err == nil && echo.IP != "" {
		return echo.IP, nil
	}
	if ip := strings.TrimSpace(string(body)); ip != "" && !strings.ContainsAny(ip, "{}<> \n") {
		return ip, nil
	}
	return "", fmt.Errorf("%w: unexpected IP echo response", model.ErrNetworkFailure)
}
