// Package config loads the studiod JSON configuration file and fills in
// defaults for the pipeline, session sweeping, event bus, alerting, tracing
// and logging sections.
package config
