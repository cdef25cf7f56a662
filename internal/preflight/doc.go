// Package preflight provides readiness checks for the commentary service and
// the local paths Sidelines writes to.
//
// The "sidelines doctor" command runs RunAll and CheckSystemDeps and renders
// the results; "sidelines submit" runs the server check first so a dead
// service is reported before the upload starts.
package preflight
