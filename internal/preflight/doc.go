// Package preflight provides readiness checks for the registry file and the
// saved Roku.
//
// The CLI "rokuctl doctor" command runs RunAll and renders each Result. Checks
// never modify the registry and never send commands with side effects; the
// device check only issues a /query/device-info request.
package preflight
