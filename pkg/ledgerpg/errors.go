package ledgerpg

import "errors"

var (
	ErrFailedToParseConfig = errors.New("ledgerpg: failed to parse connection config")
	ErrFailedToConnect     = errors.New("ledgerpg: failed to open db connection")
	ErrHealthcheckFailed   = errors.New("ledgerpg: healthcheck failed, connection is not available")
	ErrFailedToMigrate     = errors.New("ledgerpg: failed to apply migrations")
)
