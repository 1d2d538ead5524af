// Package flows contains the session protocols behind each Engine operation.
//
// Each Run function takes a typed dependency struct and returns a result
// carrying a failure kind. The root package maps kinds to its public errors,
// so raw storage and signing errors never leave the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly. All I/O goes through the session mirror and
//     signer passed in the deps.
package flows
