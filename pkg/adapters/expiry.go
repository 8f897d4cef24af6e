package adapters

import (
	"time"

	"github.com/servicekit/notify/pkg/notify"
)

// declineExpired returns the skip outcome for a request whose expiry has
// passed. Outbound adapters call it first so stale notifications never
// leave the system; the in-app and socket channels deliver regardless
// because the feed entry is durable either way.
func declineExpired(req notify.Request) (notify.Outcome, bool) {
	if req.IsExpired(time.Now()) {
		return notify.Outcome{Skipped: true, SkipReason: ErrExpired.Error()}, true
	}
	return notify.Outcome{}, false
}
