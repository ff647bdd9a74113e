// Package engine runs the background synchronization loop. A single goroutine
// owns every write to the fetched collections: it pops the next refresh
// operation from the scheduler on each interval, runs it to completion, and
// in between drains operator actions submitted by the presentation loop.
// Because fetches and actions share that goroutine they never overlap, and the
// store lock is only taken for the final copy and swap, never around a remote
// call.
package engine
