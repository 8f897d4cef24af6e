// Package async provides a minimal typed future for running functions in
// goroutines and collecting their results without shared-state plumbing.
//
// Usage:
//
//	fut := async.Run(ctx, userID, loadUser)
//	user, err := fut.Await()
//
// Several futures can be gathered positionally:
//
//	results, errs := async.CollectAll(f1, f2, f3)
package async
