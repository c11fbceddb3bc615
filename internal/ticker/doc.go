// Package ticker defines the contract of the periodic hardware event
// scheduler the synchronization engine runs on. The scheduler itself is an
// external service; this package fixes the request surface, the tri-state
// status in which "busy" is a transient and never a failure, and provides a
// controllable fake for tests.
package ticker
