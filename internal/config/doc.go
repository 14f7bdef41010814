// Package config loads, normalizes, and validates rokuctl settings.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment overrides such as ROKUCTL_REGISTRY. The
// Config type covers discovery timing, ECP transport policy, the location of
// the device registry file, and logging output.
//
// The device registry itself (device address plus installed apps) is a
// separate file owned by package registry; this package only knows where it
// lives.
package config
