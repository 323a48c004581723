package client

import (
	"bytes"
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

const maxFaucetBody = 64 << 10

// HTTPFaucet claims tokens from a web faucet that takes {"to": address}.
type HTTPFaucet struct {
	*IPLookup

	url     string
	origin  string
	timeout time.Duration
}

func NewHTTPFaucet(url, origin string, lookup *IPLookup, timeout time.Duration) *HTTPFaucet {
	return &HTTPFaucet{
		IPLookup: lookup,
		url:      url,
		origin:   strings.TrimSuffix(origin, "/"),
		timeout:  timeout,
	}
}

type faucetRequest struct {
	To string `json:"to"`
}

// faucetResponse fields are loosely typed: the service has returned both
// strings and numbers for error and data.
type faucetResponse struct {
	Data   any    `json:"data"`
	ErrMsg string `json:"err_msg"`
	Error  any    `json:"error"`
}

// failure returns the most specific failure message, or "" when the
// response is a success.
func (r faucetResponse) failure() string {
	if r.ErrMsg != "" {
		return r.ErrMsg
	}
	if code := scalarString(r.Error); code != "" && code != "200" {
		return code
	}
	return ""
}

// Claim never returns an error; every failure becomes a failed Outcome.
func (f *HTTPFaucet) Claim(ctx context.Context, address, endpoint string) model.Outcome {
	httpClient, err := proxy.NewHTTPClient(endpoint, f.timeout)
	if err != nil {
		return failed(err.Error())
	}

	body, err := json.Marshal(faucetRequest{To: address})
	if err != nil {
		return failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return failed(fmt.Sprintf("failed to create request: %v", err))
	}
	f.setHeaders(req)

	resp, err := httpClient.Do(req)
	if err != nil {
		return failed(err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFaucetBody))
	if err != nil {
		return failed(fmt.Sprintf("failed to read response: %v", err))
	}

	var parsed faucetResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil {
			if msg := parsed.failure(); msg != "" {
				return failed(msg)
			}
		}
		return failed(fmt.Sprintf("status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return failed(fmt.Sprintf("failed to decode response: %v", decodeErr))
	}
	if msg := parsed.failure(); msg != "" {
		return failed(msg)
	}
	return model.Outcome{Succeeded: true, Detail: scalarString(parsed.Data)}
}

func (f *HTTPFaucet) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	if f.origin != "" {
		req.Header.Set("Origin", f.origin)
		req.Header.Set("Referer", f.origin+"/")
	}
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("User-Agent", RandomUserAgent())
}

func failed(detail string) model.Outcome {
	return model.Outcome{Succeeded: false, Detail: detail}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
