package broadcast

import "errors"

// ErrHubClosed indicates an operation on a hub after Close.
var ErrHubClosed = errors.New("broadcast: hub is closed")
