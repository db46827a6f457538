// Package async provides a small generic Future for computations that run in
// their own goroutine and are awaited by one or more callers.
//
// The tenant registry uses futures as its in-flight creation promises: the
// first caller for an unprovisioned tenant starts the creation and stores the
// future in the cache, and concurrent callers for the same tenant await that
// same future instead of racing to create a second pool. AwaitContext lets an
// individual waiter give up on its own deadline without aborting the shared
// computation.
package async
