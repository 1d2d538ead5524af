// Package goSession issues, verifies, rotates and revokes access/refresh token
// pairs for password-authenticated users, and answers resource-ownership
// queries.
//
// Every live token is mirrored into a shared key/value store under
// "access:<userID>" and "refresh:<userID>". A token is accepted only while it
// is byte-equal to its mirrored record, so signing out or rotating revokes the
// old tokens at once even though they still carry valid signatures.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface: [Engine], [Builder], [Config] and value
// types. The refresh, verify and issue protocols live in internal/flows;
// signing lives in jwt, hashing in password, and the mirror in session.
//
// # What this package must NOT do
//
//   - Return raw storage or signing errors. Callers see ErrInvalidCredentials,
//     ErrDuplicateCredential or ErrServer.
//   - Return or log password hashes, passwords or tokens.
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
