package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rexlx/sitevet/vendors"
)

type AuthMethod interface {
	Apply(req *http.Request)
}

// ScanError carries the upstream status and body so callers can surface
// both instead of a bare status line.
type ScanError struct {
	Status int
	Body   string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed with status %d: %s", e.Status, e.Body)
}

// Endpoint talks to the scan aggregator. The limiter paces outbound
// requests; the aggregator meters by key, not by caller.
type Endpoint struct {
	Gateway *http.Client  `json:"-"`
	Limiter *rate.Limiter `json:"-"`
	Auth    AuthMethod    `json:"-"`
	URL     string        `json:"url"`
}

func NewEndpoint(url string, auth AuthMethod, insecure bool, rps float64, burst int) *Endpoint {
	client := &http.Client{Timeout: 90 * time.Second}
	if insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	if rps <= 0 {
		rps = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Endpoint{
		Gateway: client,
		Limiter: rate.NewLimiter(rate.Limit(rps), burst),
		Auth:    auth,
		URL:     url,
	}
}

// Scan submits a target and returns the decoded response as-is. The
// aggregator's schema drifts, so the result stays untyped here; the
// normalize package gives it shape. A non-JSON 2xx body means the
// aggregator had nothing to say and decodes to absent data, not an error.
func (e *Endpoint) Scan(ctx context.Context, target string) (any, error) {
	if err := e.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(vendors.ScanRequest{URL: target})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Auth != nil {
		e.Auth.Apply(req)
	}

	resp, err := e.Gateway.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ScanError{Status: resp.StatusCode, Body: string(buf)}
	}

	var raw any
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, nil
	}
	return raw, nil
}

type BasicAuth struct {
	Username string
	Password string
}

type BearerAuth struct {
	Token string
}

type KeyAuth struct {
	Token string
}

func (b *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.Token)
}

func (k *KeyAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", k.Token)
}

func (b *BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Password)
}

// AuthFromConfig maps the configured auth mode onto a method. Basic auth
// carries the credential pair as "username:password" in the key field.
// Unknown or empty modes mean the aggregator is open.
func AuthFromConfig(mode, key string) AuthMethod {
	switch mode {
	case "bearer":
		return &BearerAuth{Token: key}
	case "key":
		return &KeyAuth{Token: key}
	case "basic":
		username, password, ok := strings.Cut(key, ":")
		if !ok {
			return nil
		}
		return &BasicAuth{Username: username, Password: password}
	default:
		return nil
	}
}
