// Package redisconn connects to Redis with retry logic and provides a
// health-check helper for liveness probes.
package redisconn
