// Package resource bounds the memory, worker concurrency and IO bandwidth a
// conversion may use.
//
//   - Memory: decoded samples and cached blocks are charged against
//     MemoryLimitBytes. Acquisition never blocks; callers get
//     ErrMemoryLimitExceeded and decide what to do.
//   - Workers: the converter converts objects concurrently, one worker slot
//     per object.
//   - IO: a token bucket throttles archive block reads and writes.
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 100 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// All methods are safe for concurrent use, and all of them are no-ops on a
// nil *Controller.
package resource
