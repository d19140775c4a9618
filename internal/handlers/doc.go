// Package handlers contains the HTTP API: metadata lookup, download
// job management (start, poll, cancel), file serving, history, and the
// operational health/version endpoints.
//
// Domain failures (bad url, unknown job, engine errors) are reported as
// HTTP 200 with {"success": false, "error": "..."} so that browser
// clients handle every outcome through one response shape.
package handlers
