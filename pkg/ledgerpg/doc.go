// Package ledgerpg provides the Postgres-backed delivery ledger:
// connection pooling with retries, embedded goose migrations, and the
// notify.Ledger implementation over pgx.
package ledgerpg
