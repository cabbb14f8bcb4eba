package dashboard

import (
	"context"
	"net/http"

	"github.com/gravitational/trace"

	"github.com/statboard/statboard-cli/lib/auth"
)

// Plan returns the subscription plan associated with the account.
func (c *Client) Plan(ctx context.Context) (*Plan, error) {
	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodGet,
		Path:   "/subscription/plan/associated-with-user",
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var data planData
	if err := env.DecodeData(&data); err != nil {
		return nil, trace.Wrap(err, "failed to decode plan")
	}
	return &data.Plan, nil
}

// Checkout creates a checkout session for a plan upgrade and returns the
// provider-hosted payment page location.
func (c *Client) Checkout(ctx context.Context, planID string) (*CheckoutSession, error) {
	if planID == "" {
		return nil, trace.BadParameter("missing plan id")
	}

	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodPost,
		Path:   "/subscription/checkout",
		Body:   checkoutRequest{PlanID: planID},
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var session CheckoutSession
	if err := env.DecodeData(&session); err != nil {
		return nil, trace.Wrap(err, "failed to decode checkout session")
	}
	return &session, nil
}
