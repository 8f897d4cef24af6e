package redisconn

import "errors"

var (
	ErrFailedToParseConnString = errors.New("redisconn: failed to parse redis connection string")
	ErrNotReady                = errors.New("redisconn: redis server is not ready")
	ErrHealthcheckFailed       = errors.New("redisconn: healthcheck failed, connection is not available")
)
