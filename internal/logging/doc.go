// Package logging provides a simple leveled logging interface for the
// photo-share server and its tools.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable
// (DEBUG=true forces debug). Output is written by zerolog as JSON lines;
// LOG_FORMAT=console switches to a human readable console writer.
package logging
