// Package textutil holds small string helpers shared across packages.
//
// SanitizeFileName is applied to every name that reaches the filesystem from
// outside the process: the service's Content-Disposition suggestion, the
// --output flag and the configured default result name.
package textutil
