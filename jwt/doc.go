// Package jwt signs and verifies the access and refresh tokens of a session.
//
// Each token kind gets its own [Manager] with its own key material and TTL,
// so a refresh token never verifies as an access token and vice versa. The
// [PairSigner] mints both halves of a session concurrently.
//
// Every token carries a random jti. Two pairs minted for one subject within
// the same second are therefore distinct strings, which the session mirror
// relies on when it compares presented tokens byte for byte.
package jwt
