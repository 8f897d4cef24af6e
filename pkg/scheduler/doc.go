// Package scheduler persists quiet-hours deferrals and re-submits them
// once their delivery window opens. Each deferred notification is
// dispatched at most once; failures are recorded, never retried.
package scheduler
