package dashboard

import (
	"context"
	"net/http"

	"github.com/gravitational/trace"

	"github.com/statboard/statboard-cli/lib/auth"
)

// QueryStats runs a usage analytics query.
func (c *Client) QueryStats(ctx context.Context, query StatsQuery) (*StatsReport, error) {
	if query.Granularity == "" {
		query.Granularity = Daily
	}
	if !query.Granularity.Valid() {
		return nil, trace.BadParameter("granularity must be one of daily, weekly or monthly, got %q", query.Granularity)
	}

	env, err := c.api.Do(ctx, auth.Request{
		Method: http.MethodPost,
		Path:   "/stats/",
		Body:   query,
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var report StatsReport
	if err := env.DecodeData(&report); err != nil {
		return nil, trace.Wrap(err, "failed to decode stats report")
	}
	return &report, nil
}
