// Package resource bounds background IO such as snapshot export and restore.
//
// A Controller carries two limits:
//
//   - Jobs: a weighted semaphore capping concurrent background jobs
//   - IO: a token bucket limiting bytes per second
//
// Usage:
//
//	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 8 << 20})
//	if err := rc.AcquireJob(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseJob()
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// All methods are safe for concurrent use, and a nil *Controller imposes no
// limits.
package resource
