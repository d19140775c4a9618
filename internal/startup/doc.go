// Package startup handles application initialization: configuration
// loading from environment variables, directory validation, external
// tool checks, and the structured startup/shutdown log output.
package startup
