// Package session mirrors each user's current access and refresh token into
// a shared key/value store.
//
// # Key layout
//
// One key per user and token kind:
//
//	[<prefix>:]access:<userID>
//	[<prefix>:]refresh:<userID>
//
// The value is the token string verbatim and the key expires when the token
// does. A token is live only while it is byte-equal to its mirrored value, so
// deleting or overwriting a key revokes the previous token immediately.
//
// # Architecture boundaries
//
// [Mirror] is the narrow get/put/delete contract. [PairWriter] and [Rotator]
// are optional capabilities; [RedisMirror] implements all three, with
// [RedisMirror.RotatePair] running as a single Lua compare-and-swap.
//
// This package does not parse tokens or decide whether a caller is
// authenticated. It must not import the root package or jwt.
package session
