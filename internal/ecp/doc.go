// Package ecp speaks Roku's External Control Protocol.
//
// It holds the device and application records shared by the rest of the
// module, the closed command vocabulary (Command and its variants), the pure
// Encode function that turns a Command into a Request, and the Client that
// executes Requests over HTTP with a bounded timeout, an idempotency-driven
// single retry, and failure classification into ErrUnreachable, ErrTimeout,
// and *ProtocolError.
//
// The package also parses the XML payloads returned by /query/apps and
// /query/device-info.
package ecp
