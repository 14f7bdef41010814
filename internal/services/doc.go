// Package services defines small shared utilities used by the rokuctl
// components and CLI.
//
// Key responsibilities:
//   - Context helpers that stamp the per-invocation correlation ID and the
//     command name so every log line can be tied back to one CLI run.
//   - The Wrap helper that attaches component/operation detail to an error
//     while keeping a classification marker reachable through errors.Is.
package services
