package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"pickYourSocksAPI/internal/types/match"
)

var ErrIPLookupFailed = errors.New("ip location lookup failed")

// Locator resolves an approximate coordinate for a client address.
type Locator interface {
	Locate(ctx context.Context, ip string) (*match.Coordinate, error)
}

// IPAPILocator queries an ipapi.co compatible endpoint: GET {base}/{ip}/json/.
type IPAPILocator struct {
	BaseURL string
	Client  *http.Client
}

func NewIPAPILocator(baseURL string) *IPAPILocator {
	return &IPAPILocator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type ipapiResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (l *IPAPILocator) Locate(ctx context.Context, ip string) (*match.Coordinate, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("%w: invalid client address %q", ErrIPLookupFailed, ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", l.BaseURL, ip), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIPLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIPLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrIPLookupFailed, resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIPLookupFailed, err)
	}
	if body.Error || body.Latitude == nil || body.Longitude == nil {
		return nil, fmt.Errorf("%w: %s", ErrIPLookupFailed, body.Reason)
	}

	c := &match.Coordinate{Latitude: *body.Latitude, Longitude: *body.Longitude}
	if err := Validate(*c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIPLookupFailed, err)
	}
	return c, nil
}

// ClientIP mirrors the rate limiter: X-Forwarded-For first, then the remote address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
