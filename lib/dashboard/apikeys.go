package dashboard

import (
	"context"
	"net/http"

	"github.com/gravitational/trace"

	"github.com/statboard/statboard-cli/lib/auth"
)

// CreateAPIKey provisions a new API key. The response is the only place
// the key secret ever appears.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*APIKey, error) {
	if name == "" {
		return nil, trace.BadParameter("missing key name")
	}

	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodPost,
		Path:   "/auth/api-keys",
		Body:   createKeyRequest{Name: name},
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var data keyData
	if err := env.DecodeData(&data); err != nil {
		return nil, trace.Wrap(err, "failed to decode api key response")
	}
	return &data.Key, nil
}

// ListAPIKeys returns all keys on the account.
func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodGet,
		Path:   "/auth/api-keys",
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var data keyListData
	if err := env.DecodeData(&data); err != nil {
		return nil, trace.Wrap(err, "failed to decode api key list")
	}
	return data.Keys, nil
}

// DeleteAPIKey revokes a key by id.
func (c *Client) DeleteAPIKey(ctx context.Context, id string) error {
	if id == "" {
		return trace.BadParameter("missing key id")
	}

	_, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodDelete,
		Path:   buildURLPath("auth", "api-keys", id),
	})
	return trace.Wrap(err)
}
