package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sync"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"

	"github.com/statboard/statboard-cli/lib/auth"
	"github.com/statboard/statboard-cli/lib/auth/storage"
	"github.com/statboard/statboard-cli/lib/logger"
)

// Client is the typed feature-level API over the authenticated dispatcher.
type Client struct {
	api *auth.Client
	log logrus.FieldLogger

	// Session-scoped credential cache backing RefetchProfile. Held in
	// process memory only, never persisted.
	mu       sync.Mutex
	email    string
	password string
}

// Config is the feature client wiring.
type Config struct {
	// API is the authenticated request dispatcher.
	API *auth.Client
	// Log is the logger. Defaults to the standard one.
	Log logrus.FieldLogger
}

func (conf *Config) CheckAndSetDefaults() error {
	if conf.API == nil {
		return trace.BadParameter("missing API")
	}
	if conf.Log == nil {
		conf.Log = logger.Standard()
	}
	return nil
}

func NewClient(conf Config) (*Client, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Client{
		api: conf.API,
		log: conf.Log,
	}, nil
}

// Login authenticates with email and password, persists the returned
// credential record and caches the user profile.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var data sessionData
	if err := env.DecodeData(&data); err != nil {
		return nil, trace.Wrap(err, "failed to decode login response")
	}
	if data.AccessToken == "" {
		return nil, trace.Errorf("login response carries no access token")
	}

	store := c.api.Store()
	record := storage.Record{
		AccessToken:      data.AccessToken,
		RefreshToken:     data.RefreshToken,
		TokenType:        data.TokenType,
		ExpiresIn:        data.ExpiresIn,
		RefreshExpiresIn: data.RefreshExpiresIn,
		IssuedAt:         c.api.Clock().Now().UnixMilli(),
	}
	if err := store.Save(ctx, record); err != nil {
		return nil, trace.Wrap(err)
	}

	if data.User != nil {
		profile, err := marshalProfile(data.User)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		if err := store.SaveProfile(ctx, profile); err != nil {
			return nil, trace.Wrap(err)
		}
	}

	c.mu.Lock()
	c.email, c.password = email, password
	c.mu.Unlock()

	c.log.WithField("email", email).Info("Logged in")
	return data.User, nil
}

// Logout wipes the persisted session and the in-memory password cache.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.email, c.password = "", ""
	c.mu.Unlock()

	if err := c.api.Store().Clear(ctx); err != nil {
		return trace.Wrap(err)
	}
	c.log.Info("Logged out")
	return nil
}

// Profile returns the cached user profile from the last login.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	profile := c.api.Store().ReadProfile(ctx)
	if len(profile) == 0 {
		return nil, trace.NotFound("no cached profile, please login first")
	}
	user, err := unmarshalProfile(profile)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return user, nil
}

// RefetchProfile re-authenticates with the password cached for this
// session and returns the freshly fetched profile. It makes no network
// call when no password is cached.
func (c *Client) RefetchProfile(ctx context.Context) (*User, error) {
	c.mu.Lock()
	email, password := c.email, c.password
	c.mu.Unlock()

	if password == "" {
		return nil, trace.NotFound("no cached password for this session")
	}
	user, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return user, nil
}

// buildURLPath joins and escapes URL path segments under a leading slash.
func buildURLPath(args ...interface{}) string {
	pathArgs := []string{"/"}
	for _, a := range args {
		var str string
		switch v := a.(type) {
		case string:
			str = v
		default:
			str = fmt.Sprint(v)
		}
		pathArgs = append(pathArgs, url.PathEscape(str))
	}
	return path.Join(pathArgs...)
}
