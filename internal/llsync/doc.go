// Package llsync implements the periodic advertising synchronization
// engine of the link layer: the synchronization context lifecycle from
// creation through establishment to termination or loss, the per-event
// supervision and adaptive skip policy feeding drift back into the
// periodic event scheduler, and the in-band channel map update staging.
//
// Two execution domains drive the engine: the command domain issues
// Create, CancelCreate, Terminate and SlotUpdate and may block; the radio
// event domain drives Setup, Done and the loss path and never blocks. The
// one genuine race between them, a cancellation crossing a concurrent
// establishment, is resolved without a lock: CancelCreate clears both
// scanner bindings, then reads the atomically published supervision
// reload count; a non-zero value proves establishment won.
package llsync
