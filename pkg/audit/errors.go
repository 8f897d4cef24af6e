package audit

import "errors"

// ErrActionRequired indicates an audit event was logged without an action name.
var ErrActionRequired = errors.New("audit: action is required")
