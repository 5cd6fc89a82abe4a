package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// Client talks to the pixelstudio API. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	// upload has no jar: presigned URLs point at the object store and must
	// not receive session cookies.
	upload *http.Client
	logger logging.Logger

	refreshes singleflight.Group

	mu sync.Mutex
	// generation advances every time a new session is established. A
	// request remembers the generation it was sent under so a 401 that
	// raced with someone else's refresh can retry without refreshing again.
	generation uint64
	signedOut  bool
}

type options struct {
	httpClient *http.Client
	jar        http.CookieJar
	timeout    time.Duration
	logger     logging.Logger
}

type Option func(*options)

// WithHTTPClient uses a copy of hc for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithJar sets the cookie jar holding the session.
func WithJar(jar http.CookieJar) Option {
	return func(o *options) { o.jar = jar }
}

// WithTimeout bounds every HTTP round-trip.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a Client for the API rooted at baseURL, e.g.
// "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	o := &options{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(o)
	}

	hc := &http.Client{}
	if o.httpClient != nil {
		c := *o.httpClient
		hc = &c
	}
	if o.jar != nil {
		hc.Jar = o.jar
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc.Jar = jar
	}
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("module", "api_client")

	return &Client{
		baseURL: u,
		http:    hc,
		upload:  &http.Client{Timeout: hc.Timeout, Transport: hc.Transport},
		logger:  logger,
	}, nil
}

// BaseURL returns the API root the client was built for.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// SignedOut reports whether the session is known to be gone, either after
// Signout or after the server rejected a refresh.
func (c *Client) SignedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signedOut
}

func (c *Client) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// sessionStarted records a fresh session from login, signup or refresh.
func (c *Client) sessionStarted() {
	c.mu.Lock()
	c.generation++
	c.signedOut = false
	c.mu.Unlock()
}

func (c *Client) sessionEnded() {
	c.mu.Lock()
	c.generation++
	c.signedOut = true
	c.mu.Unlock()
}
