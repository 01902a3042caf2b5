// Package preflight runs startup checks for the frame daemon and the status
// command.
//
// Checks never abort startup on their own: the caller decides whether a
// failed check is fatal. Each result names the resource, whether it passed,
// and a short detail suitable for a status table.
package preflight
