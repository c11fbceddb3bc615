// Package config loads and validates the engine configuration: pool and
// queue capacities, the local sleep clock accuracy, coded PHY support and
// audit log rotation. Defaults are built in; a YAML file named by the
// LLSYNC_CONFIG environment variable and individual environment overrides
// refine them.
package config
