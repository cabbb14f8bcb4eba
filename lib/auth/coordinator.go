package auth

import (
	"context"

	"github.com/gravitational/trace"
	"golang.org/x/sync/singleflight"

	"github.com/statboard/statboard-cli/lib/auth/storage"
)

const refreshKey = "refresh"

// Coordinator serializes concurrent refresh attempts into a single
// in-flight operation. Callers that arrive while a refresh is running
// await its outcome instead of starting another one, so a burst of 401s
// cannot race each other on the credential store. The in-flight slot is
// released before results are delivered, so a later expiry starts a fresh
// refresh rather than reusing a settled one.
type Coordinator struct {
	refresher *Refresher
	group     singleflight.Group
}

func NewCoordinator(refresher *Refresher) *Coordinator {
	return &Coordinator{refresher: refresher}
}

// Refresh runs, or joins, the single in-flight refresh operation.
func (c *Coordinator) Refresh(ctx context.Context) (storage.Record, error) {
	result, err, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		// The shared operation must survive cancellation of whichever
		// caller happened to start it: all waiters expect one outcome.
		record, err := c.refresher.Refresh(context.WithoutCancel(ctx))
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return record, nil
	})
	if err != nil {
		return storage.Record{}, trace.Wrap(err)
	}
	return result.(storage.Record), nil
}
