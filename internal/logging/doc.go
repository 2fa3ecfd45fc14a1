// Package logging provides file-based structured logging with
// rotation for pingmem. Logs are written as JSON lines to
// ~/.ping-mem/logs/pingmem.log by default; callers may also mirror
// output to stderr.
package logging
