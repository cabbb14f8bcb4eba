package auth

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/statboard/statboard-cli/lib/auth/storage"
	"github.com/statboard/statboard-cli/lib/logger"
)

const refreshPath = "/auth/refresh"

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresher exchanges the stored refresh token for a new token pair and
// persists the result. Any failure invalidates the whole session: the
// credential store is cleared exactly once on every failure path.
type Refresher struct {
	client *resty.Client
	store  storage.Store
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// RefresherConfig is the Refresher wiring.
type RefresherConfig struct {
	// Client is the resty client pointed at the API host.
	Client *resty.Client
	// Store holds the credential record.
	Store storage.Store
	// Clock provides the IssuedAt timestamps. Defaults to the real clock.
	Clock clockwork.Clock
	// Log is the logger. Defaults to the standard one.
	Log logrus.FieldLogger
}

func (conf *RefresherConfig) CheckAndSetDefaults() error {
	if conf.Client == nil {
		return trace.BadParameter("missing Client")
	}
	if conf.Store == nil {
		return trace.BadParameter("missing Store")
	}
	if conf.Clock == nil {
		conf.Clock = clockwork.NewRealClock()
	}
	if conf.Log == nil {
		conf.Log = logger.Standard()
	}
	return nil
}

func NewRefresher(conf RefresherConfig) (*Refresher, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Refresher{
		client: conf.Client,
		store:  conf.Store,
		clock:  conf.Clock,
		log:    conf.Log,
	}, nil
}

// Refresh performs the token exchange. The refresh token is sent in the
// request body first; a 401 triggers one more attempt with the token
// carried as a bearer header instead. This is a compatibility shim for
// deployments that disagree on where the credential belongs, not a
// protocol feature. On success the new record is persisted wholesale with
// IssuedAt set to now.
func (r *Refresher) Refresh(ctx context.Context) (storage.Record, error) {
	record := r.store.Read(ctx)
	if record.RefreshToken == "" {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(newNoRefreshTokenError())
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(refreshRequest{RefreshToken: record.RefreshToken}).
		Post(refreshPath)
	if err != nil {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(newNetworkError(err))
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		r.log.Debug("Refresh body mode rejected, falling back to header mode")
		resp, err = r.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+record.RefreshToken).
			Post(refreshPath)
		if err != nil {
			r.clearStore(ctx)
			return storage.Record{}, trace.Wrap(newNetworkError(err))
		}
	}

	env, envErr := parseEnvelope(resp.StatusCode(), resp.Body())
	if envErr != nil {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(envErr)
	}

	var data TokenData
	if err := env.DecodeData(&data); err != nil {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(newMalformedBodyError(resp.StatusCode(), resp.Body(), err))
	}
	if data.AccessToken == "" {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(newHTTPError(resp.StatusCode(), resp.Body()))
	}

	newRecord := storage.Record{
		AccessToken:      data.AccessToken,
		RefreshToken:     data.RefreshToken,
		TokenType:        data.TokenType,
		ExpiresIn:        data.ExpiresIn,
		RefreshExpiresIn: data.RefreshExpiresIn,
		IssuedAt:         r.clock.Now().UnixMilli(),
	}
	if err := r.store.Save(ctx, newRecord); err != nil {
		r.clearStore(ctx)
		return storage.Record{}, trace.Wrap(err)
	}

	r.log.Debug("Refreshed credentials")
	return newRecord, nil
}

func (r *Refresher) clearStore(ctx context.Context) {
	if err := r.store.Clear(ctx); err != nil {
		r.log.WithError(err).Warn("Failed to clear the credential store")
	}
}
