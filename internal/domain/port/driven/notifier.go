package driven

import "context"

// NotificationSink defines the driven port for delivering pre-rendered
// notification payloads. The core renders; the sink only delivers.
type NotificationSink interface {
	Deliver(ctx context.Context, payload string) error
}
