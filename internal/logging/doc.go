// Package logging provides structured JSON logging with size-based file
// rotation. Logs are written to ~/.ragsift/logs/ragsift.log by default so
// pipeline diagnostics survive across CLI invocations.
package logging
