// Package audit writes one JSON line per host command handled by the
// engine, with size-based rotation of the log file.
package audit
