package spacetraders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public v2 endpoint.
	DefaultBaseURL = "https://api.spacetraders.io/v2"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
	// pageLimit is the largest page the API serves; only the first page is read.
	pageLimit = 20
)

// Client issues typed requests against the SpaceTraders API. The bearer token
// is attached by the transport, so callers never handle it directly.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The token is still
// injected by wrapping the supplied client's transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// bearerRoundTripper injects the Authorization header into every request.
type bearerRoundTripper struct {
	base  http.RoundTripper
	token string
}

func (t *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

// New builds a client for baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("spacetraders: token is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("spacetraders: parse base url: %w", err)
	}
	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *c.http
	wrapped.Transport = &bearerRoundTripper{base: base, token: token}
	if c.timeout > 0 {
		wrapped.Timeout = c.timeout
	}
	c.http = &wrapped
	return c, nil
}

// FetchMyAgent returns the authenticated agent.
func (c *Client) FetchMyAgent(ctx context.Context) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/my/agent", nil, nil, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// FetchContracts returns the first page of the agent's contracts.
func (c *Client) FetchContracts(ctx context.Context) ([]Contract, error) {
	var contracts []Contract
	if err := c.do(ctx, http.MethodGet, "/my/contracts", pageQuery(), nil, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// FetchMyShips returns the first page of the agent's fleet.
func (c *Client) FetchMyShips(ctx context.Context) ([]Ship, error) {
	var ships []Ship
	if err := c.do(ctx, http.MethodGet, "/my/ships", pageQuery(), nil, &ships); err != nil {
		return nil, err
	}
	return ships, nil
}

// FetchSystemWaypoints returns the first page of waypoints in a system.
func (c *Client) FetchSystemWaypoints(ctx context.Context, systemSymbol string) ([]Waypoint, error) {
	path := fmt.Sprintf("/systems/%s/waypoints", url.PathEscape(systemSymbol))
	var waypoints []Waypoint
	if err := c.do(ctx, http.MethodGet, path, pageQuery(), nil, &waypoints); err != nil {
		return nil, err
	}
	return waypoints, nil
}

// FetchWaypoint returns a single waypoint.
func (c *Client) FetchWaypoint(ctx context.Context, systemSymbol, waypointSymbol string) (*Waypoint, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s", url.PathEscape(systemSymbol), url.PathEscape(waypointSymbol))
	var wp Waypoint
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// FetchShipyard returns the shipyard at a waypoint.
func (c *Client) FetchShipyard(ctx context.Context, systemSymbol, waypointSymbol string) (*Shipyard, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", url.PathEscape(systemSymbol), url.PathEscape(waypointSymbol))
	var yard Shipyard
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &yard); err != nil {
		return nil, err
	}
	return &yard, nil
}

// AcceptContract accepts a contract offer.
func (c *Client) AcceptContract(ctx context.Context, contractID string) (*Contract, error) {
	var out struct {
		Contract Contract `json:"contract"`
	}
	path := fmt.Sprintf("/my/contracts/%s/accept", url.PathEscape(contractID))
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Contract, nil
}

// NavigateShip sends a ship to a waypoint in its current system.
func (c *Client) NavigateShip(ctx context.Context, shipSymbol, destination string) (*ShipNav, error) {
	var out struct {
		Nav ShipNav `json:"nav"`
	}
	body := map[string]string{"waypointSymbol": destination}
	path := fmt.Sprintf("/my/ships/%s/navigate", url.PathEscape(shipSymbol))
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Nav, nil
}

// DockShip docks a ship at its current waypoint.
func (c *Client) DockShip(ctx context.Context, shipSymbol string) (*ShipNav, error) {
	return c.navAction(ctx, shipSymbol, "dock")
}

// OrbitShip moves a docked ship into orbit.
func (c *Client) OrbitShip(ctx context.Context, shipSymbol string) (*ShipNav, error) {
	return c.navAction(ctx, shipSymbol, "orbit")
}

func (c *Client) navAction(ctx context.Context, shipSymbol, verb string) (*ShipNav, error) {
	var out struct {
		Nav ShipNav `json:"nav"`
	}
	path := fmt.Sprintf("/my/ships/%s/%s", url.PathEscape(shipSymbol), verb)
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Nav, nil
}

// ExtractResources mines at the ship's current waypoint.
func (c *Client) ExtractResources(ctx context.Context, shipSymbol string) (*Extraction, error) {
	var out struct {
		Extraction Extraction `json:"extraction"`
	}
	path := fmt.Sprintf("/my/ships/%s/extract", url.PathEscape(shipSymbol))
	if err := c.do(ctx, http.MethodPost, path, nil, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out.Extraction, nil
}

// DeliverContract hands cargo from a docked ship over to a contract.
func (c *Client) DeliverContract(ctx context.Context, contractID, shipSymbol, tradeSymbol string, units int) (*Contract, error) {
	var out struct {
		Contract Contract `json:"contract"`
	}
	body := map[string]any{
		"shipSymbol":  shipSymbol,
		"tradeSymbol": tradeSymbol,
		"units":       units,
	}
	path := fmt.Sprintf("/my/contracts/%s/deliver", url.PathEscape(contractID))
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Contract, nil
}

// PurchaseShip buys a ship of shipType at a shipyard waypoint.
func (c *Client) PurchaseShip(ctx context.Context, shipType, waypointSymbol string) (*Ship, error) {
	var out struct {
		Ship Ship `json:"ship"`
	}
	body := map[string]string{"shipType": shipType, "waypointSymbol": waypointSymbol}
	if err := c.do(ctx, http.MethodPost, "/my/ships", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Ship, nil
}

func pageQuery() url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(pageLimit))
	q.Set("page", "1")
	return q
}

// do performs one request and decodes the "data" envelope into out. path is
// already escaped; callers escape each symbol they interpolate.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := *c.baseURL
	target.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(target.RawPath)
	if err != nil {
		return fmt.Errorf("spacetraders: bad path %q: %w", path, err)
	}
	target.Path = unescaped
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("spacetraders: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("spacetraders: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spacetraders: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("spacetraders: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("spacetraders: decode %s %s: %w", method, path, err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("spacetraders: %s %s: response missing data", method, path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("spacetraders: decode %s %s data: %w", method, path, err)
	}
	return nil
}
