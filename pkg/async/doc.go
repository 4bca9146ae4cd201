// Package async provides a small future abstraction for fire-and-collect
// goroutine dispatch.
//
// Go runs a function on its own goroutine, recovers panics into errors, and
// returns a Future that can be awaited with or without a deadline. AwaitAll
// collects a batch of futures under one shared deadline, which is how
// connection teardown isolates cleanup callbacks: each runs on its own
// goroutine, and a stuck callback costs at most the deadline instead of
// stalling the rest.
//
//	futures := []*async.Future{
//		async.Go(cleanupRoom),
//		async.Go(cleanupMetrics),
//	}
//	if err := async.AwaitAll(5*time.Second, futures...); err != nil {
//		log.Warn("cleanup incomplete", logger.Error(err))
//	}
package async
