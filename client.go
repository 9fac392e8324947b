// Package kuro is a client for the HTTP APIs of Kuro Games titles:
// authentication (KuroBBS web login and the game SDK credential flow),
// announcements, gacha record retrieval and player profile lookup.
//
// Login flows that trip the provider's risk control require a human to solve
// a geetest challenge; the package spins up a short-lived localhost web
// server and opens the system browser for that (see SolveGeetest and
// EnterCode).
package kuro

import (
	"os"

	"github.com/rs/zerolog"
)

const defaultGeetestPort = 5000

// Client talks to the Kuro APIs. The zero value is not usable; construct
// with NewClient.
//
// A client owns one device identity: every signed game-SDK call it makes
// carries the same deviceNum, which the provider requires across a login
// sequence (login, token exchange, token check, auto login, OAuth code).
type Client struct {
	transport Transport
	logger    zerolog.Logger

	game        Game
	region      Region
	lang        Lang
	deviceID    string
	geetestPort int
	cookies     map[string]string
	proxyURL    string
	proxyErr    error
}

// Option configures a Client.
type Option func(*Client)

// WithRegion sets the API region. Defaults to RegionOverseas.
func WithRegion(region Region) Option {
	return func(c *Client) { c.region = region }
}

// WithLang sets the response language. Defaults to LangEnglish.
func WithLang(lang Lang) Option {
	return func(c *Client) { c.lang = lang }
}

// WithDeviceID pins the device identity instead of generating one per
// client. Useful to resume a login sequence started elsewhere.
func WithDeviceID(id string) Option {
	return func(c *Client) { c.deviceID = id }
}

// WithGeetestPort overrides the local port the challenge server binds.
// Concurrent login attempts in one process must use distinct ports.
func WithGeetestPort(port int) Option {
	return func(c *Client) { c.geetestPort = port }
}

// WithDebug enables request/response debug logging on this client's logger.
// Logging is per instance; no process-wide level is touched.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		if debug {
			c.logger = c.logger.Level(zerolog.DebugLevel)
		} else {
			c.logger = c.logger.Level(zerolog.InfoLevel)
		}
	}
}

// WithLogger replaces the client's logger entirely.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTransport replaces the HTTP transport. Primarily a test seam, but also
// the hook for callers that need custom proxying or caching.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithProxy routes all API traffic through the given proxy. Accepts the
// common vendor formats (ip:port, ip:port:user:pass, full URL); a malformed
// value fails NewClient.
func WithProxy(proxy string) Option {
	return func(c *Client) {
		normalized, err := normalizeProxyURL(proxy)
		if err != nil {
			c.proxyErr = err
			return
		}
		c.proxyURL = normalized
	}
}

// WithCookies sets cookies attached to every web API request, e.g. the
// session token obtained from a previous login.
func WithCookies(cookies map[string]string) Option {
	return func(c *Client) {
		c.cookies = make(map[string]string, len(cookies))
		for k, v := range cookies {
			c.cookies[k] = v
		}
	}
}

// NewClient creates a Client for the given game.
func NewClient(game Game, opts ...Option) (*Client, error) {
	c := &Client{
		logger:      zerolog.New(os.Stderr).With().Timestamp().Str("component", "kuro").Logger().Level(zerolog.InfoLevel),
		game:        game,
		region:      RegionOverseas,
		lang:        LangEnglish,
		geetestPort: defaultGeetestPort,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.proxyErr != nil {
		return nil, c.proxyErr
	}

	if c.transport == nil {
		httpClient, err := newHTTPClient(c.proxyURL, 30)
		if err != nil {
			return nil, err
		}
		c.transport = &httpTransport{client: httpClient, logger: c.logger}
	}

	return c, nil
}

// Region returns the region the client is configured for.
func (c *Client) Region() Region {
	return c.region
}

// DeviceID returns the client's stable device identity, generating it on
// first use.
func (c *Client) DeviceID() string {
	if c.deviceID == "" {
		c.deviceID = EnsureDeviceID("")
	}
	return c.deviceID
}

// SetCookies replaces the cookies attached to web API requests.
func (c *Client) SetCookies(cookies map[string]string) {
	c.cookies = make(map[string]string, len(cookies))
	for k, v := range cookies {
		c.cookies[k] = v
	}
}

// requireRegion guards region-gated operations. It fails before any request
// is issued.
func (c *Client) requireRegion(op string, want Region) error {
	if c.region != want {
		return &RegionMismatchError{Op: op, Want: want, Have: c.region}
	}
	return nil
}

// appKey returns the signing secret for the client's (game, region) pair.
func (c *Client) appKey() string {
	return AppKey(c.game, c.region)
}
