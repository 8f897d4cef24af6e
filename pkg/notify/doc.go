// Package notify orchestrates multi-channel notification delivery.
//
// A Center accepts a Request, resolves the recipient's Profile, applies
// the quiet-hours gate and the priority-driven channel selection policy,
// then fans the request out concurrently to the registered channel
// adapters. Every accepted request and every per-channel attempt is
// recorded in a Ledger, which also backs the recipient's in-app feed.
//
// Usage:
//
//	registry := notify.NewRegistry().
//		Register(emailAdapter, 10*time.Second).
//		Register(pushAdapter, 5*time.Second)
//
//	center := notify.NewCenter(profiles, ledger, registry, deferrals)
//	result, err := center.Send(ctx, notify.Request{
//		RecipientID: "user-42",
//		Priority:    notify.PriorityHigh,
//		Title:       "Invoice ready",
//		Body:        "Your March invoice is available.",
//	})
package notify
