// Package broadcast provides an in-memory, room-addressed pub/sub hub
// for pushing real-time events to connected clients.
package broadcast
