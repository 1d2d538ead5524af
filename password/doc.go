// Package password hashes and verifies account passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Parameters travel with every hash, so a [Hasher] configured with stronger
// costs still verifies hashes written under older ones.
//
// The package owns hashing only. It never stores passwords and never logs
// plaintext or parameters.
package password
