// Package introspect resolves bearer tokens through an RFC 7662 token
// introspection endpoint. The authorization server is the source of truth;
// this client only transports the question and normalizes the answer into a
// raw claim map.
package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
)

// ErrIntrospection indicates the introspection call failed or the endpoint
// rejected the request. The caller treats it as "could not establish
// identity"; transport detail is carried only in the wrapped message.
var ErrIntrospection = errors.New("introspect: introspection failed")

// ErrInactiveToken indicates the endpoint answered, and the token is not
// active.
var ErrInactiveToken = errors.New("introspect: token inactive")

// Response bodies above this size are rejected rather than read.
const maxResponseSize = 64 * 1024

// Config for an introspection Client.
type Config struct {
	// Endpoint is the introspection endpoint URL.
	Endpoint string
	// ClientID and ClientSecret authenticate this resource server to the
	// endpoint via HTTP basic auth when both are set.
	ClientID     string
	ClientSecret string
	// HTTPClient overrides the transport. Defaults to a client with a 10s
	// timeout; per-request deadlines still come from the caller's context.
	HTTPClient *http.Client
}

// Client posts tokens to an RFC 7662 endpoint and returns their claims.
type Client struct {
	cfg    Config
	client *http.Client
}

// New validates the config and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("introspection endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, client: httpClient}, nil
}

// ReadClaims introspects the token and returns its claims as a raw map. An
// inactive token yields ErrInactiveToken; every transport or protocol
// failure (including a caller-context timeout) yields ErrIntrospection.
func (c *Client) ReadClaims(ctx context.Context, tok string) (map[string]any, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrIntrospection)
	}

	form := url.Values{}
	form.Set("token", tok)
	form.Set("token_type_hint", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrIntrospection, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.cfg.ClientID != "" && c.cfg.ClientSecret != "" {
		req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrIntrospection, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrIntrospection, resp.StatusCode)
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrIntrospection, resp.Header.Get("Content-Type"))
	}

	return parseIntrospectionResponse(body)
}

var jsonMediaType = contenttype.NewMediaType("application/json")

func isJSON(header string) bool {
	mt := contenttype.NewMediaType(header)
	return mt.Type == jsonMediaType.Type && mt.Subtype == jsonMediaType.Subtype
}

// parseIntrospectionResponse normalizes an RFC 7662 response into a claim
// map. Registered members are lifted alongside any extension members the
// server included.
func parseIntrospectionResponse(body []byte) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrIntrospection, err)
	}
	active, ok := all["active"].(bool)
	if !ok {
		return nil, fmt.Errorf("%w: response missing active flag", ErrIntrospection)
	}
	if !active {
		return nil, ErrInactiveToken
	}

	claims := make(map[string]any, len(all))
	for k, v := range all {
		if k == "active" {
			continue
		}
		if s, isStr := v.(string); isStr {
			claims[k] = strings.TrimSpace(s)
			continue
		}
		claims[k] = v
	}
	return claims, nil
}
