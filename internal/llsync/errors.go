package llsync

import "errors"

// Normalized error codes surfaced to the host command layer.
var (
	// ErrResourceExhausted reports a context pool or notification
	// buffer exhaustion; partial allocations are always unwound first.
	ErrResourceExhausted = errors.New("RESOURCE_EXHAUSTED")

	// ErrAlreadyInProgress reports a duplicate create, or a cancel that
	// lost the race against a completed establishment.
	ErrAlreadyInProgress = errors.New("ALREADY_IN_PROGRESS")

	// ErrNotFound reports an operation on an absent or not yet
	// established handle.
	ErrNotFound = errors.New("NOT_FOUND")

	// ErrInvalidHandle reports a handle outside the pool's range.
	ErrInvalidHandle = errors.New("INVALID_HANDLE")

	// ErrInvalidParam reports a command parameter outside its range.
	ErrInvalidParam = errors.New("INVALID_PARAM")

	// ErrQueueFull reports that a deferred job could not be enqueued.
	ErrQueueFull = errors.New("QUEUE_FULL")

	// ErrSchedulerFault reports an asynchronous scheduler failure. It
	// is fatal within the engine; callers must not retry.
	ErrSchedulerFault = errors.New("SCHEDULER_FAULT")
)
