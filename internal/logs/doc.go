// Package logs reads the Sidelines log file for `sidelines logs`.
//
// Last returns the trailing lines of the file with bounded memory, optionally
// filtered to one job, and Follow polls for appended lines until its context
// ends. Only complete lines are delivered; a truncated or rotated file is
// re-read from the start.
package logs
