// Package password hashes and verifies user passwords.
//
// New hashes are Argon2id in PHC string form:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt_b64>$<key_b64>
//
// Verification also accepts bcrypt hashes carried over from older deployments;
// NeedsRehash reports them so callers can upgrade on the next successful login.
//
// Hash strings are untrusted input during Verify. Malformed hashes, and Argon2id
// parameters far above the configured cost, verify as false.
package password
