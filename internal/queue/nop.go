package queue

import (
	"context"

	"github.com/labstack/gommon/log"
)

// NopPublisher drops events after logging them at debug level.  It backs
// EVENT_SINK=none.
type NopPublisher struct {
	Log *log.Logger
}

func (n NopPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if n.Log != nil {
		n.Log.Debugf("event %s dropped (no sink configured)", eventType)
	}
	return nil
}
