// Package failover manages a primary/backup pair of messaging providers.
// A background health loop probes both and keeps the active pointer on
// the healthiest one; sends additionally fall back in-band when the
// active provider errors.
package failover
