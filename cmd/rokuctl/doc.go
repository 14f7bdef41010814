// Package main hosts the rokuctl CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into External Control
// Protocol requests against the Roku saved in the registry. Discovery,
// persistence, encoding, and transport live in internal packages; commands
// here resolve configuration, load the registry, and render results.
package main
