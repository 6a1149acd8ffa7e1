// Package api exposes the session lifecycle over REST: creating sessions,
// submitting input, patching generated configurations and reading audit
// trails, plus health and Prometheus endpoints.
package api
