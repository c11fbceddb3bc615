// Package pool provides a fixed-capacity arena with a free list and stable
// integer handles. Handles, never raw pointers, are the identifiers that
// cross execution domain boundaries; HandleOf doubles as the membership
// check that guards against stale references.
package pool
