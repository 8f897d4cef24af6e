// Package audit records an immutable trail of actions the system takes,
// such as notification sends and quiet-hours deferrals.
package audit
