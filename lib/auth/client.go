package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/statboard/statboard-cli/lib/auth/storage"
	"github.com/statboard/statboard-cli/lib/logger"
)

const apiMaxConns = 100
const apiHTTPTimeout = 10 * time.Second

// Request describes one dispatched API call.
type Request struct {
	Method string
	Path   string
	Body   interface{}
	Query  url.Values
	// Header carries caller-supplied headers. They win over the defaults
	// the dispatcher would otherwise attach.
	Header http.Header
}

// Client is the authenticated request dispatcher: the single facade all
// feature code calls the API through. It refreshes expired credentials
// before a call, retries a call exactly once after a 401, and terminates
// the session when the credentials cannot be renewed. The dispatch path
// itself never writes to the credential store; only the refresh operation
// and explicit logout do.
type Client struct {
	http             *resty.Client
	store            storage.Store
	coordinator      *Coordinator
	clock            clockwork.Clock
	log              logrus.FieldLogger
	onSessionExpired func()
}

// Config is the dispatcher wiring.
type Config struct {
	// ServerURL is the API host, e.g. "https://api.statboard.io".
	ServerURL string
	// Store holds the credential record and the cached profile.
	Store storage.Store
	// HTTPClient overrides the underlying transport. Set only in tests.
	HTTPClient *http.Client
	// Clock provides current time for expiry checks. Defaults to the real
	// clock.
	Clock clockwork.Clock
	// Log is the logger. Defaults to the standard one.
	Log logrus.FieldLogger
	// OnSessionExpired is invoked when the session is terminated, after
	// the credential store has been cleared. It decouples user-facing
	// reaction (redirect, prompt) from the retry logic. Optional.
	OnSessionExpired func()
}

func (conf *Config) CheckAndSetDefaults() error {
	if conf.ServerURL == "" {
		return trace.BadParameter("missing ServerURL")
	}
	if conf.Store == nil {
		return trace.BadParameter("missing Store")
	}
	if conf.HTTPClient == nil {
		conf.HTTPClient = &http.Client{
			Timeout: apiHTTPTimeout,
			Transport: &http.Transport{
				MaxConnsPerHost:     apiMaxConns,
				MaxIdleConnsPerHost: apiMaxConns,
			},
		}
	}
	if conf.Clock == nil {
		conf.Clock = clockwork.NewRealClock()
	}
	if conf.Log == nil {
		conf.Log = logger.Standard()
	}
	if conf.OnSessionExpired == nil {
		conf.OnSessionExpired = func() {}
	}
	return nil
}

func NewClient(conf Config) (*Client, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	httpClient := resty.NewWithClient(conf.HTTPClient)
	httpClient.SetHostURL(conf.ServerURL)

	refresher, err := NewRefresher(RefresherConfig{
		Client: httpClient,
		Store:  conf.Store,
		Clock:  conf.Clock,
		Log:    conf.Log,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	return &Client{
		http:             httpClient,
		store:            conf.Store,
		coordinator:      NewCoordinator(refresher),
		clock:            conf.Clock,
		log:              conf.Log,
		onSessionExpired: conf.OnSessionExpired,
	}, nil
}

// Store exposes the credential store the client was built with.
func (c *Client) Store() storage.Store {
	return c.store
}

// Clock exposes the clock the client was built with.
func (c *Client) Clock() clockwork.Clock {
	return c.clock
}

// Do dispatches an API call with bearer credentials attached, renewing
// them when needed:
//
//  1. If the stored record is expired and a refresh token exists, a
//     coordinated refresh runs (or is joined) before the call goes out. A
//     failed proactive refresh terminates the session and the call is
//     never sent.
//  2. On a 401 the call is re-issued exactly once after a coordinated
//     refresh, with freshly attached headers. The retried response is
//     returned whatever its outcome; a second 401 goes back to the
//     caller untouched.
//
// The returned envelope is non-nil whenever it could be decoded, even on
// failed responses, so callers can still inspect it.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	record := c.store.Read(ctx)

	if Expired(record, c.clock.Now()) && record.RefreshToken != "" {
		refreshed, err := c.coordinator.Refresh(ctx)
		if err != nil {
			// The refresher has already cleared the store.
			c.terminateSession(ctx, false)
			return nil, trace.Wrap(err)
		}
		record = refreshed
	}

	resp, err := c.send(ctx, req, record)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		record = c.store.Read(ctx)
		if record.RefreshToken == "" {
			c.terminateSession(ctx, true)
			return nil, trace.Wrap(newSessionExpiredError())
		}

		refreshed, err := c.coordinator.Refresh(ctx)
		if err != nil {
			c.terminateSession(ctx, false)
			return nil, trace.Wrap(err)
		}

		c.log.WithField("path", req.Path).Debug("Retrying request with refreshed credentials")
		resp, err = c.send(ctx, req, refreshed)
		if err != nil {
			return nil, trace.Wrap(err)
		}
	}

	return parseEnvelope(resp.StatusCode(), resp.Body())
}

func (c *Client) send(ctx context.Context, req Request, record storage.Record) (*resty.Response, error) {
	r := c.http.R().SetContext(ctx)

	if req.Body != nil {
		r.SetBody(req.Body)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	for key, values := range req.Header {
		for _, value := range values {
			r.Header.Add(key, value)
		}
	}

	if r.Header.Get("Content-Type") == "" {
		r.SetHeader("Content-Type", "application/json")
	}
	if r.Header.Get("Authorization") == "" && record.AccessToken != "" {
		tokenType := record.TokenType
		if tokenType == "" {
			tokenType = "Bearer"
		}
		r.SetHeader("Authorization", tokenType+" "+record.AccessToken)
	}
	if r.Header.Get("X-Request-Id") == "" {
		r.SetHeader("X-Request-Id", uuid.NewString())
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, newNetworkError(err)
	}
	return resp, nil
}

// terminateSession fails the session secure: the credential store ends up
// empty and the injected capability gets a chance to react (redirect to
// the login view, print a message).
func (c *Client) terminateSession(ctx context.Context, clearStore bool) {
	if clearStore {
		if err := c.store.Clear(ctx); err != nil {
			c.log.WithError(err).Warn("Failed to clear the credential store")
		}
	}
	c.log.Info("Session terminated, authentication required")
	c.onSessionExpired()
}
