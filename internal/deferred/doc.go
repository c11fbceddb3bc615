// Package deferred moves work between the engine's priority domains
// through bounded per-domain queues. The scheduler's completion callbacks
// run on an intermediate level and use it to hand notification
// construction back to the radio event level without blocking either.
package deferred
