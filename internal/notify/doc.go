// Package notify carries the engine's host-facing notifications: fixed
// pools of receive nodes and their queue links, and the delivery queue the
// upper layer drains. Nodes for terminal outcomes are pre-allocated at
// creation time so loss reporting can never fail on exhaustion.
package notify
